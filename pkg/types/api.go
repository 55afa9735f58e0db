package types

// GenerateRequest is the payload for POST /generate.
type GenerateRequest struct {
	// Image to colorize, as a data URI or bare base64 string. Any format the
	// server can decode is accepted (png, jpeg, gif, bmp, tiff, webp).
	// example: data:image/png;base64,iVBORw0KGgo...
	Image string `json:"image" example:"data:image/png;base64,iVBORw0KGgo..."`
	// Internal render resolution factor. Integer in [7,45]; omitted means 35.
	// example: 35
	RenderFactor *float64 `json:"render_factor,omitempty" example:"35"`
	// Encoding of the returned image: png (default) or jpeg.
	// example: png
	OutputFormat string `json:"output_format,omitempty" example:"png"`
}

// GenerateResponse is returned by POST /generate.
type GenerateResponse struct {
	// Colorized image as a data URI. Same width and height as the input.
	// example: data:image/png;base64,iVBORw0KGgo...
	Image string `json:"image" example:"data:image/png;base64,iVBORw0KGgo..."`
	// Identifier of this generation, also sent as X-Generation-ID.
	// example: 0b0c7bb5-0d56-4c52-9d0e-4f1a2a7c34b1
	GenerationID string `json:"generation_id,omitempty" example:"0b0c7bb5-0d56-4c52-9d0e-4f1a2a7c34b1"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Lifecycle state of the model (loading, ready, error, closed).
	// example: ready
	State string `json:"state" example:"ready"`
	// Variant selected at startup.
	// example: artistic
	Variant string `json:"variant" example:"artistic"`
	// Engine backend in use.
	// example: server
	Backend string `json:"backend" example:"server"`
	// Requests waiting for the model, including the one in flight.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Number of generations currently running (0 or 1).
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Maximum queued requests allowed before backpressure triggers.
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
	// Completed generations since startup.
	// example: 12
	GenerationsTotal uint64 `json:"generations_total" example:"12"`
	// Failed generations since startup (validation excluded).
	// example: 1
	FailuresTotal uint64 `json:"failures_total" example:"1"`
	// Internal buffer resets performed on the model.
	// example: 13
	ResetsTotal uint64 `json:"resets_total" example:"13"`
	// Last error observed (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// MetaResponse describes setup options and commands, returned by GET /meta.
type MetaResponse struct {
	Options  []OptionSpec  `json:"options"`
	Commands []CommandSpec `json:"commands"`
	// Weights files discovered in the configured weights directory.
	Weights []VariantWeights `json:"weights,omitempty"`
}

// OptionSpec describes a setup-time option.
type OptionSpec struct {
	// example: architecture
	Name string `json:"name" example:"architecture"`
	// example: category
	Type string `json:"type" example:"category"`
	// example: ["Artistic","Stable","Video"]
	Choices []string `json:"choices,omitempty"`
	// example: Artistic
	Default string `json:"default,omitempty" example:"Artistic"`
	// Value chosen for this process.
	// example: Artistic
	Value string `json:"value,omitempty" example:"Artistic"`
}

// CommandSpec describes one command with its inputs and outputs.
type CommandSpec struct {
	// example: generate
	Name    string      `json:"name" example:"generate"`
	Inputs  []FieldSpec `json:"inputs"`
	Outputs []FieldSpec `json:"outputs"`
}

// FieldSpec describes a command input or output.
type FieldSpec struct {
	// example: render_factor
	Name string `json:"name" example:"render_factor"`
	// example: number
	Type    string   `json:"type" example:"number"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Step    *float64 `json:"step,omitempty"`
	Default *float64 `json:"default,omitempty"`
}
