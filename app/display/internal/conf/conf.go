package conf

type Bootstrap struct {
	Server   *Server
	Analyzer *Analyzer
}

type Server struct {
	Http *HTTP
}

type HTTP struct {
	Addr    string
	Timeout string
	// MaxUpload 上传音频和备份的大小上限，单位 MB
	MaxUpload int32 `json:"max_upload"`
}

type Analyzer struct {
	Llm         *LLM         `json:"llm"`
	Concurrency *Concurrency `json:"concurrency"`
	Storage     *Storage     `json:"storage"`
	Log         *Log         `json:"log"`
	Prompt      *Prompt      `json:"prompt"`
	Backup      *Backup      `json:"backup"`
	Report      *Report      `json:"report"`
}

type LLM struct {
	Provider        string `json:"provider"`
	BaseUrl         string `json:"base_url"`
	ApiKey          string `json:"api_key"`
	Model           string `json:"model"`
	TranscribeModel string `json:"transcribe_model"`
	Timeout         int32  `json:"timeout"`
	MaxTokens       int32  `json:"max_tokens"`
}

type Concurrency struct {
	Qps     int32 `json:"qps"`
	Rpm     int32 `json:"rpm"`
	Workers int32 `json:"workers"`
}

type Storage struct {
	Driver string  `json:"driver"`
	Db     *DB     `json:"db"`
	Sqlite *SQLite `json:"sqlite"`
	Redis  *Redis  `json:"redis"`
}

type DB struct {
	Host     string `json:"host"`
	Port     int32  `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
	SslMode  string `json:"sslmode"`
}

type SQLite struct {
	Path string `json:"path"`
}

type Redis struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	Db       int32  `json:"db"`
	Prefix   string `json:"prefix"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type Prompt struct {
	BusinessContextFile string `json:"business_context_file"`
}

type Backup struct {
	Source string `json:"source"`
}

type Report struct {
	Timezone  string `json:"timezone"`
	TrendDays int32  `json:"trend_days"`
}
