//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/biz"
	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/conf"
	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/data"
	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/server"
	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Bootstrap, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		server.ProviderSet,
		data.ProviderSet,
		biz.ProviderSet,
		service.ProviderSet,
		wire.Bind(new(server.HealthChecker), new(*data.Data)),
		newApp,
	))
}
