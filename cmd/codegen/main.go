package main

import (
	"context"
	"fmt"
	"go/format"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/delaneyj/ripple/cmd/codegen/templates"
	"github.com/urfave/cli/v3"
)

const (
	selectCountKey = "count"
	outKey         = "out"
	packageKey     = "package"
)

func main() {
	cmd := &cli.Command{
		Name:  "generate",
		Usage: "Generate typed SelectN helpers for atom",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  selectCountKey,
				Usage: "Highest dependency count to generate a Select helper for",
				Value: 4,
			},
			&cli.StringFlag{
				Name:  outKey,
				Usage: "Output file",
				Value: "atom/select_gen.go",
			},
			&cli.StringFlag{
				Name:  packageKey,
				Usage: "Package name of the generated file",
				Value: "atom",
			},
		},
		Action: generate,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func generate(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	log.Printf("Codegen for atom started !")
	defer func() {
		log.Printf("Codegen for atom finished in %v", time.Since(start))
	}()

	count := int(cmd.Uint(selectCountKey))
	if count < 1 {
		return fmt.Errorf("--%s must be at least 1", selectCountKey)
	}
	out := cmd.String(outKey)
	log.Printf("Select helpers: 1..%d -> %s", count, out)

	contents, err := format.Source([]byte(templates.SelectGen(cmd.String(packageKey), count)))
	if err != nil {
		return fmt.Errorf("format generated code: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	return os.WriteFile(out, contents, 0644)
}
