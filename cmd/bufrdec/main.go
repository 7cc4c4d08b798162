// Command bufrdec decodes WMO FM 94 BUFR messages from the command line.
//
// Usage:
//
//	bufrdec decode --table <b-table.txt> [--json] <file.bufr>
//	bufrdec decode --manifest <manifest.yaml> [--json] <file.bufr>
//	bufrdec scan   --table <b-table.txt> <file>
//	bufrdec info   <file.bufr>
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/tazle/gobufr"
	"github.com/tazle/gobufr/internal/bitio"
	"github.com/tazle/gobufr/internal/config"
	"github.com/tazle/gobufr/internal/framing"
	"github.com/tazle/gobufr/internal/table"
	"github.com/tazle/gobufr/internal/tableio"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "decode":
		err = runDecode(os.Args[2:])
	case "scan":
		err = runScan(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "bufrdec: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "bufrdec: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  bufrdec decode (--table <b-table.txt> | --manifest <manifest.yaml>) [--json] <file.bufr>
                                                              Decode one message
  bufrdec scan   (--table <b-table.txt> | --manifest <manifest.yaml>) <file>
                                                              Bulk-scan for messages
  bufrdec info   <file.bufr>                                 Print header fields only

Run "bufrdec <command> -h" for command-specific options.
`)
}

func openInput(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	return os.Open(path)
}

func loadTable(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table %s: %w", path, err)
	}
	defer f.Close()

	flat, err := tableio.ReadBTable(f)
	if err != nil {
		return nil, fmt.Errorf("reading table %s: %w", path, err)
	}
	return table.New(flat, nil)
}

// resolveTable picks the B-table for inputPath, either directly from
// tablePath or by peeking inputPath's §0/§1 header and resolving it against
// manifestPath's table manifest. Exactly one of tablePath/manifestPath must
// be set. Manifest resolution opens inputPath a second time to read its
// header ahead of the real decode, so it cannot be used against stdin.
func resolveTable(tablePath, manifestPath, inputPath string) (*table.Table, error) {
	if manifestPath == "" {
		if tablePath == "" {
			return nil, errors.New("either --table or --manifest is required")
		}
		return loadTable(tablePath)
	}
	if tablePath != "" {
		return nil, errors.New("--table and --manifest are mutually exclusive")
	}
	if inputPath == "-" {
		return nil, errors.New("--manifest cannot be used when reading from stdin")
	}

	mf, err := os.Open(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("opening manifest %s: %w", manifestPath, err)
	}
	defer mf.Close()
	manifest, err := tableio.LoadManifest(mf)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", manifestPath, err)
	}

	peek, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", inputPath, err)
	}
	defer peek.Close()

	r := bitio.NewReader(peek)
	sec0, err := framing.DecodeSection0(r)
	if err != nil {
		return nil, fmt.Errorf("peeking header of %s: %w", inputPath, err)
	}
	sec1, err := framing.DecodeSection1(r, sec0.Edition)
	if err != nil {
		return nil, fmt.Errorf("peeking header of %s: %w", inputPath, err)
	}

	entry, ok := manifest.Resolve(sec1)
	if !ok {
		return nil, fmt.Errorf("no manifest entry for centre %d, master table version %d, local table version %d",
			sec1.OriginatingCentre, sec1.MasterTableVersion, sec1.LocalTableVersion)
	}
	return loadTable(entry.Path)
}

func loadConfig(cfgPath string) (*config.Config, error) {
	if cfgPath == "" {
		return &config.Config{LogLevel: "info", ScanChunkSize: 64 * 1024}, nil
	}
	return config.Load(cfgPath)
}

func runDecode(args []string) error {
	fs := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	tablePath := fs.StringP("table", "t", "", "path to a B-table text file")
	manifestPath := fs.StringP("manifest", "m", "", "path to a table manifest YAML file (auto-selects a table from the message's §1 header)")
	cfgPath := fs.StringP("config", "c", "", "path to a YAML config file (optional)")
	asJSON := fs.Bool("json", false, "print the decoded message as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("decode: missing input file")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if *manifestPath == "" && *tablePath == "" {
		*manifestPath = cfg.TableManifestPath
	}

	tbl, err := resolveTable(*tablePath, *manifestPath, fs.Arg(0))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	f, err := openInput(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if f != os.Stdin {
		defer f.Close()
	}

	msg, err := bufr.Decode(f, tbl)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	if *asJSON {
		b, err := bufr.ToJSON(msg)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		os.Stdout.Write(b)
		fmt.Println()
		return nil
	}

	printMessage(msg)
	return nil
}

func runScan(args []string) error {
	fs := pflag.NewFlagSet("scan", pflag.ContinueOnError)
	tablePath := fs.StringP("table", "t", "", "path to a B-table text file")
	manifestPath := fs.StringP("manifest", "m", "", "path to a table manifest YAML file (auto-selects a table from the message's §1 header)")
	cfgPath := fs.StringP("config", "c", "", "path to a YAML config file (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("scan: missing input file")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if *manifestPath == "" && *tablePath == "" {
		*manifestPath = cfg.TableManifestPath
	}
	logger := cfg.NewLogger(os.Stderr)

	tbl, err := resolveTable(*tablePath, *manifestPath, fs.Arg(0))
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	f, err := openInput(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if f != os.Stdin {
		defer f.Close()
	}

	messages, scanErrs := bufr.Scan(f, tbl, cfg.ScanChunkSize, logger)
	fmt.Printf("decoded %d message(s), %d failure(s)\n", len(messages), len(scanErrs))
	for _, se := range scanErrs {
		fmt.Printf("  offset %d: %v\n", se.Offset, se.Err)
	}
	return nil
}

func runInfo(args []string) error {
	fs := pflag.NewFlagSet("info", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("info: missing input file")
	}

	f, err := openInput(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	if f != os.Stdin {
		defer f.Close()
	}

	r := bitio.NewReader(f)
	sec0, err := framing.DecodeSection0(r)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	sec1, err := framing.DecodeSection1(r, sec0.Edition)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	if sec1.OptionalSection != 0 {
		if _, err := framing.DecodeSection2(r); err != nil {
			return fmt.Errorf("info: %w", err)
		}
	}
	sec3, err := framing.DecodeSection3Codes(r)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}

	fmt.Printf("edition:        %d\n", sec0.Edition)
	fmt.Printf("total length:   %d\n", sec0.TotalLength)
	fmt.Printf("centre:         %d\n", sec1.OriginatingCentre)
	fmt.Printf("subcentre:      %d\n", sec1.OriginatingSubcentre)
	fmt.Printf("master version: %d\n", sec1.MasterTableVersion)
	fmt.Printf("local version:  %d\n", sec1.LocalTableVersion)
	fmt.Printf("date:           %04d-%02d-%02d %02d:%02d:%02d\n", sec1.Year, sec1.Month, sec1.Day, sec1.Hour, sec1.Minute, sec1.Second)
	fmt.Printf("subsets:        %d\n", sec3.NSubsets)
	fmt.Printf("descriptors:    %d\n", len(sec3.Codes))
	for _, code := range sec3.Codes {
		fmt.Printf("  %s\n", code)
	}
	return nil
}

func printMessage(msg *bufr.Message) {
	fmt.Printf("edition %d, centre %d, %04d-%02d-%02d %02d:%02d\n",
		msg.Section0.Edition, msg.Section1.OriginatingCentre,
		msg.Section1.Year, msg.Section1.Month, msg.Section1.Day,
		msg.Section1.Hour, msg.Section1.Minute)
	printValues(msg.Values, 0)
}

func printValues(values []interface{}, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	for _, v := range values {
		switch x := v.(type) {
		case bufr.BufrValue:
			el := x.Descriptor
			fmt.Printf("%s%s %s = %v\n", indent, el.Code(), el.Significance, x.Value)
		case []interface{}:
			fmt.Printf("%s[replication group, %d repeats]\n", indent, len(x))
			for _, group := range x {
				if inner, ok := group.([]interface{}); ok {
					printValues(inner, depth+1)
				}
			}
		}
	}
}
