package config

const (
	defaultConfigDir         = "~/.config/renderfarm"
	defaultStateDir          = "~/.local/share/renderfarm"
	defaultAutosaveDir       = "~/.local/share/renderfarm/autosave"
	defaultLogDir            = "~/.local/share/renderfarm/logs"
	defaultHost              = "https://xmlrpc.renderfarm.fi"
	defaultDevHost           = "http://xmlrpc.dev.renderfarm.fi"
	defaultSecurePath        = "/auth"
	defaultGeneralPath       = "/session"
	defaultUploadPath        = "/file"
	defaultRequestTimeout    = 120
	defaultMemoryLimit       = 256
	defaultParts             = 1
	defaultSamples           = 50
	defaultSubSamples        = 1
	defaultRenderer          = "blender"
	defaultOutputLicense     = "cc-by-sa"
	defaultInputLicense      = "cc-by-sa"
	defaultLocalRenderCmd    = "blender"
	defaultLocalRenderFrame  = 1
	defaultTransientSeconds  = 4
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	credentialFileName       = "credentials.toml"
	devModeFileName          = "dev.toml"
	stateFileName            = "renderfarm.db"
	lockFileName             = "renderfarm.lock"
	logFileName              = "renderfarm.log"
	hostEnvVar               = "RENDERFARM_HOST"
	defaultConfigFileName    = "config.toml"
	defaultProjectConfigName = "renderfarm.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ConfigDir:   defaultConfigDir,
			StateDir:    defaultStateDir,
			AutosaveDir: defaultAutosaveDir,
			LogDir:      defaultLogDir,
		},
		Service: Service{
			Host:           defaultHost,
			DevHost:        defaultDevHost,
			SecurePath:     defaultSecurePath,
			GeneralPath:    defaultGeneralPath,
			UploadPath:     defaultUploadPath,
			RequestTimeout: defaultRequestTimeout,
		},
		Submission: Submission{
			MemoryLimit:   defaultMemoryLimit,
			Parts:         defaultParts,
			Samples:       defaultSamples,
			SubSamples:    defaultSubSamples,
			Renderer:      defaultRenderer,
			OutputLicense: defaultOutputLicense,
			InputLicense:  defaultInputLicense,
		},
		LocalRender: LocalRender{
			Command: defaultLocalRenderCmd,
			Args:    []string{"--background", "{file}", "--render-frame", "{frame}"},
			Frame:   defaultLocalRenderFrame,
		},
		Alerts: Alerts{
			TransientSeconds: defaultTransientSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
