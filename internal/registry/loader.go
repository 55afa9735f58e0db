package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"colorizerd/internal/common/fsutil"
	"colorizerd/pkg/types"
)

// weightsFiles maps the generator weights filename of each variant.
var weightsFiles = map[string]string{
	"colorizeartistic_gen.pth": "artistic",
	"colorizestable_gen.pth":   "stable",
	"colorizevideo_gen.pth":    "video",
}

// WeightsFileName returns the expected weights filename for a variant name.
func WeightsFileName(variant string) string {
	switch strings.ToLower(variant) {
	case "artistic":
		return "ColorizeArtistic_gen.pth"
	case "stable":
		return "ColorizeStable_gen.pth"
	case "video":
		return "ColorizeVideo_gen.pth"
	}
	return ""
}

// LoadDir scans dir (non-recursively) for generator weights files. File names
// are matched case-insensitively. An empty dir yields an empty registry.
func LoadDir(dir string) ([]types.VariantWeights, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	abs, err := fsutil.ResolveDir(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []types.VariantWeights
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		v, ok := weightsFiles[strings.ToLower(e.Name())]
		if !ok {
			continue
		}
		p := filepath.Join(abs, e.Name())
		out = append(out, types.VariantWeights{Variant: v, Path: p, SizeMB: fsutil.SizeMB(p)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Variant < out[j].Variant })
	return out, nil
}

// Lookup returns the weights entry for variant.
func Lookup(ws []types.VariantWeights, variant string) (types.VariantWeights, bool) {
	for _, w := range ws {
		if strings.EqualFold(w.Variant, variant) {
			return w, true
		}
	}
	return types.VariantWeights{}, false
}
