package wix

import "embed"

//go:embed assets
var assets embed.FS

// Template returns the annotated wxs template for hand-maintained
// definitions. The {{replace-with-a-guid}} placeholders must be
// filled in before the document will validate.
func Template() []byte {
	raw, err := assets.ReadFile("assets/main.wxs")
	if err != nil {
		// The template is compiled in; failing to read it is a
		// build defect, not a runtime condition.
		panic(err)
	}
	return raw
}
