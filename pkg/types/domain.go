package types

// VariantWeights is a generator weights file discovered on disk.
type VariantWeights struct {
	// Variant the weights belong to.
	// example: artistic
	Variant string `json:"variant" example:"artistic"`
	// Absolute path to the weights file.
	// example: /home/user/models/deoldify/ColorizeArtistic_gen.pth
	Path string `json:"path" example:"/home/user/models/deoldify/ColorizeArtistic_gen.pth"`
	// File size in MB (rounded down, minimum 1).
	// example: 243
	SizeMB int `json:"size_mb" example:"243"`
}
