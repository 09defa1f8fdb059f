package conf

import (
	"fmt"
)

type Bootstrap struct {
	Server *Server `yaml:"server" json:"server"`
	Data   *Data   `yaml:"data" json:"data"`
	Client *Client `yaml:"client" json:"client"`
	Quota  *Quota  `yaml:"quota" json:"quota"`
	Log    *Log    `yaml:"log" json:"log"`
}

type Server struct {
	Http struct {
		Addr    string `yaml:"addr" json:"addr"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"http" json:"http"`
}

type Data struct {
	Database struct {
		Driver string `yaml:"driver" json:"driver"`
		Source string `yaml:"source" json:"source"`
	} `yaml:"database" json:"database"`
	Redis struct {
		Addr         string `yaml:"addr" json:"addr"`
		Password     string `yaml:"password" json:"password"`
		Db           int32  `yaml:"db" json:"db"`
		ReadTimeout  string `yaml:"read_timeout" json:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout" json:"write_timeout"`
	} `yaml:"redis" json:"redis"`
}

type Client struct {
	IdentityService *IdentityService `yaml:"identity_service" json:"identity_service"`
	Gemini          *Gemini          `yaml:"gemini" json:"gemini"`
}

// IdentityService 身份认证服务 (外部 token 校验)
type IdentityService struct {
	Addr    string `yaml:"addr" json:"addr"`
	Timeout string `yaml:"timeout" json:"timeout"`
}

// Gemini 生成式 AI 服务
type Gemini struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	ApiKey   string `yaml:"api_key" json:"api_key"`
	Model    string `yaml:"model" json:"model"`
	Timeout  string `yaml:"timeout" json:"timeout"`
}

// Quota 订阅配额配置
type Quota struct {
	// Namespace 存储键前缀 (应用/环境标识, 例如 ecopredict:prod)
	Namespace string `yaml:"namespace" json:"namespace"`
	// FreeTierLimit 免费层分析次数上限, 0 表示使用默认值
	FreeTierLimit int `yaml:"free_tier_limit" json:"free_tier_limit"`
}

type Log struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// Validate validates the configuration
func (b *Bootstrap) Validate() error {
	if b.Server == nil {
		return fmt.Errorf("server configuration is required")
	}
	if b.Server.Http.Addr == "" {
		return fmt.Errorf("server.http.addr is required")
	}
	if b.Data == nil {
		return fmt.Errorf("data configuration is required")
	}
	if b.Data.Database.Source == "" {
		return fmt.Errorf("data.database.source is required")
	}
	if b.Data.Redis.Addr == "" {
		return fmt.Errorf("data.redis.addr is required")
	}
	if b.Client == nil {
		return fmt.Errorf("client configuration is required")
	}
	if b.Client.IdentityService == nil || b.Client.IdentityService.Addr == "" {
		return fmt.Errorf("client.identity_service.addr is required")
	}
	if b.Client.Gemini == nil || b.Client.Gemini.ApiKey == "" {
		return fmt.Errorf("client.gemini.api_key is required")
	}
	if b.Quota == nil || b.Quota.Namespace == "" {
		return fmt.Errorf("quota.namespace is required")
	}
	if b.Log == nil {
		return fmt.Errorf("log configuration is required")
	}
	return nil
}

// FreeTierLimitOrDefault 返回免费层上限 (未配置时使用默认值)
func (b *Bootstrap) FreeTierLimitOrDefault(def int) int {
	if b.Quota != nil && b.Quota.FreeTierLimit > 0 {
		return b.Quota.FreeTierLimit
	}
	return def
}
