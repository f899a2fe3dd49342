package params

const (
	// ParamsKeyPauses stores the module pause configuration.
	ParamsKeyPauses = "system/pauses"
	// ParamsKeySettings stores the yield settings consumed by the engines.
	ParamsKeySettings = "yield/settings"
)
