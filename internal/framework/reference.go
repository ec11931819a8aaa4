package framework

import (
	"fmt"
	"strings"
)

// Reference is the rendered framework description placed in the classifier
// prompt. It is built once at startup and never changes.
type Reference struct {
	text string
}

// BuildReference renders every asset with its stage, purpose and checklist.
func BuildReference(f *Framework) Reference {
	var b strings.Builder
	b.WriteString("CO-BUILDER VENTURE FRAMEWORK (27 assets)\n")

	for _, stage := range f.Stages {
		fmt.Fprintf(&b, "\n## Stage %d: %s\n", stage.Number, stage.Title)
		for _, asset := range stage.Assets {
			fmt.Fprintf(&b, "\nAsset %d: %s\n", asset.Number, asset.Title)
			fmt.Fprintf(&b, "Purpose: %s\n", asset.Purpose)
			if len(asset.Checklist) == 0 {
				continue
			}
			b.WriteString("Checklist:\n")
			for _, item := range asset.Checklist {
				fmt.Fprintf(&b, "  - [%s] %s\n", item.ID, item.Text)
			}
		}
	}

	return Reference{text: b.String()}
}

func (r Reference) String() string {
	return r.text
}

func (r Reference) IsZero() bool {
	return r.text == ""
}
