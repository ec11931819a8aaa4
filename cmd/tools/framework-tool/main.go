// cmd/tools/framework-tool/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"cobuilder/internal/framework"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		help(out)
		return fmt.Errorf("missing command")
	}

	validateCmd := flag.NewFlagSet("validate", flag.ContinueOnError)
	validateFile := validateCmd.String("file", "", "Framework YAML to check (defaults to the embedded one)")

	referenceCmd := flag.NewFlagSet("reference", flag.ContinueOnError)
	referenceFile := referenceCmd.String("file", "", "Framework YAML (defaults to the embedded one)")

	listCmd := flag.NewFlagSet("list", flag.ContinueOnError)
	listFile := listCmd.String("file", "", "Framework YAML (defaults to the embedded one)")
	listStage := listCmd.Int("stage", 0, "Only list assets of this stage")
	listJSON := listCmd.Bool("json", false, "Print JSON instead of a table")

	assetCmd := flag.NewFlagSet("asset", flag.ContinueOnError)
	assetFile := assetCmd.String("file", "", "Framework YAML (defaults to the embedded one)")
	assetNumber := assetCmd.Int("n", 0, "Asset number (1-27)")

	switch args[0] {
	case "validate":
		if err := validateCmd.Parse(args[1:]); err != nil {
			return err
		}
		fw, err := load(*validateFile)
		if err != nil {
			return fmt.Errorf("framework validation failed: %w", err)
		}
		fmt.Fprintf(out, "Framework validation passed: %d stages, %d assets, %d checklist items.\n",
			len(fw.Stages), len(fw.Assets()), countItems(fw))

	case "reference":
		if err := referenceCmd.Parse(args[1:]); err != nil {
			return err
		}
		fw, err := load(*referenceFile)
		if err != nil {
			return err
		}
		fmt.Fprint(out, framework.BuildReference(fw).String())

	case "list":
		if err := listCmd.Parse(args[1:]); err != nil {
			return err
		}
		fw, err := load(*listFile)
		if err != nil {
			return err
		}
		return listAssets(out, fw, *listStage, *listJSON)

	case "asset":
		if err := assetCmd.Parse(args[1:]); err != nil {
			return err
		}
		fw, err := load(*assetFile)
		if err != nil {
			return err
		}
		asset, ok := fw.Asset(*assetNumber)
		if !ok {
			return fmt.Errorf("asset %d not found", *assetNumber)
		}
		printAsset(out, fw, asset)

	case "help":
		help(out)

	default:
		help(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

func load(path string) (*framework.Framework, error) {
	if path == "" {
		return framework.Load()
	}
	return framework.LoadFile(path)
}

func countItems(fw *framework.Framework) int {
	n := 0
	for _, a := range fw.Assets() {
		n += len(a.Checklist)
	}
	return n
}

func listAssets(out io.Writer, fw *framework.Framework, stage int, asJSON bool) error {
	var assets []framework.Asset
	for _, a := range fw.Assets() {
		if stage == 0 || fw.StageOf(a.Number) == stage {
			assets = append(assets, a)
		}
	}
	if stage != 0 && len(assets) == 0 {
		return fmt.Errorf("stage %d not found", stage)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(assets)
	}

	for _, a := range assets {
		fmt.Fprintf(out, "%2d  stage %d  %-32s %d items\n", a.Number, fw.StageOf(a.Number), a.Title, len(a.Checklist))
	}
	return nil
}

func printAsset(out io.Writer, fw *framework.Framework, asset framework.Asset) {
	fmt.Fprintf(out, "Asset %d: %s (stage %d)\n", asset.Number, asset.Title, fw.StageOf(asset.Number))
	fmt.Fprintf(out, "Purpose: %s\n", asset.Purpose)
	for _, item := range asset.Checklist {
		fmt.Fprintf(out, "  [%s] %s\n", item.ID, item.Text)
	}
}

func help(out io.Writer) {
	fmt.Fprintln(out, "Usage: framework-tool <command> [options]")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  validate   Check the framework definition (-file path)")
	fmt.Fprintln(out, "  reference  Print the classifier reference document")
	fmt.Fprintln(out, "  list       List assets (-stage N, -json)")
	fmt.Fprintln(out, "  asset      Show one asset and its checklist (-n N)")
}
