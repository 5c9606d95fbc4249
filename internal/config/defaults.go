package config

const (
	defaultDataDir              = "~/.local/share/faceless"
	defaultLogDir               = "~/.local/share/faceless/logs"
	defaultProvider             = "ollama"
	defaultOpenAIModel          = "gpt-4o-mini"
	defaultGroqModel            = "llama-3.3-70b-versatile"
	defaultGeminiModel          = "gemini-2.0-flash"
	defaultOllamaHost           = "http://127.0.0.1:11434"
	defaultOllamaModel          = "qwen2.5:14b-instruct"
	defaultComfyBaseURL         = "http://127.0.0.1:8188"
	defaultWorkflowTemplate     = "~/.config/faceless/workflow_api.json"
	defaultPollIntervalMS       = 500
	defaultWaitTimeoutSeconds   = 180
	defaultBusyExtensionSeconds = 120
	defaultLoraStrength         = 0.8
	defaultSteps                = 8
	defaultCFG                  = 2.2
	defaultSamplerName          = "euler_ancestral"
	defaultScheduler            = "simple"
	defaultQualityTags          = "masterpiece, best quality, amazing quality"
	defaultNegative             = "bad quality, worst quality, sketch, signature, watermark"
	defaultHistoryLimit         = 10
	defaultNotifyTimeout        = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		LLM: LLM{
			Provider:    defaultProvider,
			OpenAIModel: defaultOpenAIModel,
			GroqModel:   defaultGroqModel,
			GeminiModel: defaultGeminiModel,
			OllamaHost:  defaultOllamaHost,
			OllamaModel: defaultOllamaModel,
		},
		Comfy: Comfy{
			BaseURL:              defaultComfyBaseURL,
			WorkflowTemplate:     defaultWorkflowTemplate,
			PollIntervalMS:       defaultPollIntervalMS,
			WaitTimeoutSeconds:   defaultWaitTimeoutSeconds,
			BusyExtensionSeconds: defaultBusyExtensionSeconds,
		},
		Character: Character{
			LoraStrength: defaultLoraStrength,
		},
		Generation: Generation{
			Steps:           defaultSteps,
			CFG:             defaultCFG,
			SamplerName:     defaultSamplerName,
			Scheduler:       defaultScheduler,
			QualityTags:     defaultQualityTags,
			Negative:        defaultNegative,
			RejectWhileBusy: true,
			HistoryLimit:    defaultHistoryLimit,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Generation:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
