// Package config fornece as estruturas e a função de carregamento da
// configuração do serviço a partir de arquivo YAML e variáveis de ambiente.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config estrutura geral com as configurações do serviço.
type Config struct {
	Env                     string        `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string        `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string        `yaml:"migrations_path" env-default:"./migrations"`
	RabbitMQURL             string        `yaml:"rabbitmq_url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries      int           `yaml:"rabbitmq_max_retries" env-default:"10"`
	RabbitMQRetryDelay      time.Duration `yaml:"rabbitmq_retry_delay" env-default:"3s"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Gateway                 `yaml:"gateway"`
	PaymentProvider         `yaml:"payment_provider"`
	Sweep                   `yaml:"sweep"`
	Limits                  `yaml:"limits"`
}

// HTTPServer estrutura com as configurações do servidor HTTP.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:"0.0.0.0:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection estrutura com as configurações de conexão ao redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// JWTToken estrutura para validação dos tokens emitidos pelo provedor
// de identidade externo.
type JWTToken struct {
	JWTSecretKey string `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
}

// Gateway estrutura com as configurações do gateway de mensagens.
type Gateway struct {
	GatewayBaseURL string        `yaml:"gateway_base_url"`
	GatewayAPIKey  string        `yaml:"gateway_api_key" env:"GATEWAY_API_KEY"`
	GatewayTimeout time.Duration `yaml:"gateway_timeout" env-default:"10s"`
}

// PaymentProvider estrutura com as configurações do processador de pagamentos.
type PaymentProvider struct {
	PaymentBaseURL string        `yaml:"payment_base_url" env-default:"https://api.mercadopago.com"`
	PaymentTimeout time.Duration `yaml:"payment_timeout" env-default:"10s"`
}

// Sweep estrutura com as configurações das varreduras diárias.
type Sweep struct {
	SweepInterval   time.Duration `yaml:"sweep_interval" env-default:"24h"`
	RetentionDays   int           `yaml:"retention_days" env-default:"5"`
	RetentionBatch  int           `yaml:"retention_batch" env-default:"1000"`
	DispatchBatch   int           `yaml:"dispatch_batch" env-default:"50"`
	DispatchWorkers int           `yaml:"dispatch_workers" env-default:"5"`
}

// Limits estrutura com a política do limite de conexões por plano.
type Limits struct {
	// FailOpen define o comportamento quando a leitura do perfil ou das
	// conexões falha: true libera a criação, false propaga o erro.
	FailOpen        bool          `yaml:"fail_open" env-default:"true"`
	DefaultMaxConns int           `yaml:"default_max_connections" env-default:"1"`
	LimitCacheTTL   time.Duration `yaml:"limit_cache_ttl" env-default:"1m"`
}

// MustLoad carrega a configuração do caminho indicado em CONFIG_PATH.
// Encerra o processo se o arquivo não existir ou for inválido.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
