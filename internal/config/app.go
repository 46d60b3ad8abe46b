package config

type AppConfig struct {
	Server ServerConfig
	Forge  ForgeConfig
	Notify NotifyConfig
	Log    LogConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	forgeCfg, err := LoadForge()
	if err != nil {
		return AppConfig{}, err
	}
	notifyCfg, err := LoadNotify()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Forge:  forgeCfg,
		Notify: notifyCfg,
		Log:    logCfg,
	}, nil
}
