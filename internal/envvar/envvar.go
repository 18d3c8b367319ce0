package envvar

const (
	// HerbariumEnv is the environment variable used to determine the environment.
	HerbariumEnv = "HERBARIUM_ENV"

	// HerbariumServerHTTPPort is the environment variable used to determine the HTTP port.
	HerbariumServerHTTPPort = "HERBARIUM_SERVER_HTTP_PORT"

	// HerbariumServerGRPCPort is the environment variable used to determine the gRPC port.
	HerbariumServerGRPCPort = "HERBARIUM_SERVER_GRPC_PORT"

	// HerbariumModelsPath is the environment variable used to override the models directory.
	HerbariumModelsPath = "HERBARIUM_MODELS_PATH"

	// HerbariumArtifactURL is the environment variable used to override the model artifact URL.
	HerbariumArtifactURL = "HERBARIUM_ARTIFACT_URL"

	// HerbariumLogLevel is the environment variable used to override the log level.
	HerbariumLogLevel = "HERBARIUM_LOG_LEVEL"

	// HerbariumDotEnv is the environment variable pointing at an optional .env file.
	HerbariumDotEnv = "HERBARIUM_DOTENV"
)
