package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/georgepadayatti/docstacker/assembly"
	"github.com/georgepadayatti/docstacker/pdf/bridge"
	"github.com/georgepadayatti/docstacker/pdf/images"
)

func newStackCommand(a *app) *cobra.Command {
	var letterhead, cover, body, terms, output string
	cmd := &cobra.Command{
		Use:   "stack",
		Short: "Stitch cover, body and terms, with an optional letterhead",
		Example: `  docstacker stack --cover cover.pdf --body body.pdf -o out.pdf
  docstacker stack --letterhead lh.pdf --cover cover.pdf --body body.pdf --terms terms.pdf -o out.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var parts assembly.Parts
			var err error
			for _, in := range []struct {
				path string
				dst  *[]byte
			}{
				{letterhead, &parts.Letterhead},
				{cover, &parts.Cover},
				{body, &parts.Body},
				{terms, &parts.Terms},
			} {
				if *in.dst, err = readOptional(in.path); err != nil {
					return err
				}
			}

			out, err := a.offline().Assemble(cmd.Context(), parts)
			if err != nil {
				return err
			}
			if err := writeOutput(output, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stacked document written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&letterhead, "letterhead", "", "Letterhead PDF (page 1 is used)")
	cmd.Flags().StringVar(&cover, "cover", "", "Cover PDF")
	cmd.Flags().StringVar(&body, "body", "", "Body PDF")
	cmd.Flags().StringVar(&terms, "terms", "", "Terms PDF")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PDF")
	_ = cmd.MarkFlagRequired("cover")
	_ = cmd.MarkFlagRequired("body")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newSignCommand(a *app) *cobra.Command {
	var fieldsPath, stampPath, output string
	var signatures []string
	cmd := &cobra.Command{
		Use:     "sign <input.pdf>",
		Short:   "Place signature images on the fields of a document",
		Example: `  docstacker sign --fields fields.json --signature client=client.png --stamp stamp.png in.pdf -o signed.pdf`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pdf, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			fields, err := readFields(fieldsPath)
			if err != nil {
				return err
			}
			sigs, err := readSignatures(signatures)
			if err != nil {
				return err
			}
			var stampImg *images.Image
			if stampPath != "" {
				if stampImg, err = readImage(stampPath); err != nil {
					return fmt.Errorf("stamp: %w", err)
				}
			}

			out, err := a.offline().SignDocument(cmd.Context(), pdf, fields, sigs, stampImg)
			if err != nil {
				return err
			}
			if err := writeOutput(output, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed document written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&fieldsPath, "fields", "", "JSON file with the signature fields")
	cmd.Flags().StringArrayVar(&signatures, "signature", nil, "Signature image as field-id=path (repeatable)")
	cmd.Flags().StringVar(&stampPath, "stamp", "", "Stamp image drawn behind every signature")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PDF")
	_ = cmd.MarkFlagRequired("fields")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newFinalizeCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "finalize <input.pdf>",
		Short: "Remove interactive form fields from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pdf, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			out, err := bridge.NewPDFCPU().Flatten(pdf)
			if err != nil {
				return err
			}
			if err := writeOutput(output, out); err != nil {
				return err
			}
			a.log.Debug("finalized", "input", args[0], "output", output)
			fmt.Fprintf(cmd.OutOrStdout(), "Final document written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PDF")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// pageInfo is one page in the info output.
type pageInfo struct {
	Page   int     `json:"page"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func newInfoCommand(a *app) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "info <input.pdf>",
		Short: "Show the page count and page sizes of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pdf, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			sizes, err := a.offline().PageSizes(pdf)
			if err != nil {
				return err
			}

			pages := make([]pageInfo, len(sizes))
			for i, s := range sizes {
				pages[i] = pageInfo{Page: i, Width: s.Width, Height: s.Height}
			}
			w := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"pageCount": len(pages), "pages": pages})
			}
			fmt.Fprintf(w, "Pages: %d\n", len(pages))
			for _, p := range pages {
				fmt.Fprintf(w, "  %d: %.2f x %.2f pt\n", p.Page, p.Width, p.Height)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRenderCommand(a *app) *cobra.Command {
	var page int
	var output string
	cmd := &cobra.Command{
		Use:   "render <input.pdf>",
		Short: "Render one page (0-indexed) as a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pdf, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			if err := bridge.NewPoppler(a.cfg.PopplerOptions()).AssertReady(); err != nil {
				return err
			}
			data, err := a.offline().RenderPDFPage(cmd.Context(), pdf, page)
			if err != nil {
				return err
			}
			if err := writeOutput(output, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d written to %s\n", page, output)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Page index, starting at 0")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PNG")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
