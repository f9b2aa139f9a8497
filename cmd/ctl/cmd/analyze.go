package cmd

import (
	"context"
	"fmt"

	"github.com/jpfielding/raster.go/pkg/jpeg"
	"github.com/jpfielding/raster.go/pkg/png"
	"github.com/jpfielding/raster.go/pkg/raster"
	"github.com/jpfielding/raster.go/pkg/util"
	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze cobra command
func NewAnalyzeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze PNG/JPEG file structure",
		Long:  "Parses and displays the chunk or marker structure of an image, plus a fingerprint of the decoded pixels.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath, _ := cmd.Flags().GetString("file")
			if filePath == "" && len(args) > 0 {
				filePath = args[0]
			}
			if filePath == "" {
				return fmt.Errorf("file path is required. Use --file flag or provide as argument")
			}
			return runAnalyze(ctx, filePath)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("file", "f", "", "image file path to analyze")

	return cmd
}

func runAnalyze(ctx context.Context, filePath string) error {
	data, err := readInput(ctx, filePath)
	if err != nil {
		return err
	}

	switch raster.DetectFormat(data) {
	case raster.FormatPNG:
		return analyzePNG(data)
	case raster.FormatJPEG:
		return analyzeJPEG(data)
	default:
		return fmt.Errorf("unrecognized image format")
	}
}

func analyzePNG(data []byte) error {
	chunks, err := png.ParseChunks(data[len(png.Signature):], &png.ParseOptions{ValidateCRC: true})
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	fmt.Printf("Total chunks: %d\n\n", len(chunks))
	fmt.Println("=== Chunks ===")
	for _, c := range chunks {
		status := "ok"
		if !c.Valid {
			status = "BAD CRC"
		}
		fmt.Printf("%-4s offset=%-8d length=%-8d crc=%08x %s\n", c.Type, c.Offset, c.Length, c.CRC, status)
	}

	if err := png.ValidateChunkStructure(chunks); err != nil {
		fmt.Printf("\nStructure: INVALID (%v)\n", err)
	} else {
		fmt.Println("\nStructure: valid")
	}

	img, err := png.Decode(data, nil)
	if err != nil {
		fmt.Printf("Decode error: %v\n", err)
		return nil
	}
	fmt.Printf("\n=== Image ===\n")
	fmt.Printf("Dimensions: %dx%d\n", img.Width, img.Height)
	fmt.Printf("ColorType: %d BitDepth: %d Interlace: %d\n",
		img.Header.ColorType, img.Header.BitDepth, img.Header.InterlaceMethod)
	fmt.Printf("Pixel fingerprint: %s\n", util.ContentUUID(img.Pixels))
	if img.Metadata.Physical != nil {
		dpiX, dpiY := img.Metadata.Physical.DPI()
		fmt.Printf("DPI: %.1fx%.1f\n", dpiX, dpiY)
	}
	for kw, text := range img.Metadata.Text {
		fmt.Printf("Text[%s]: %s\n", kw, text)
	}
	return nil
}

func analyzeJPEG(data []byte) error {
	segs, err := jpeg.ParseSegments(data)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	fmt.Printf("Total segments: %d\n\n", len(segs))
	fmt.Println("=== Segments ===")
	for _, s := range segs {
		fmt.Printf("FF%02X offset=%-8d length=%d\n", s.Marker, s.Offset, len(s.Data))
	}

	img, err := jpeg.Decode(data)
	if err != nil {
		fmt.Printf("\nDecode error: %v\n", err)
		return nil
	}
	fmt.Printf("\n=== Image ===\n")
	fmt.Printf("Dimensions: %dx%d\n", img.Width, img.Height)
	fmt.Printf("Precision: %d Progressive: %v\n", img.Metadata.Precision, img.Metadata.Progressive)
	if img.Metadata.JFIF != nil {
		fmt.Printf("JFIF: %d.%02d\n", img.Metadata.JFIF.Major, img.Metadata.JFIF.Minor)
	}
	if img.Metadata.Exif != nil {
		fmt.Printf("Exif: %d bytes\n", len(img.Metadata.Exif))
	}
	fmt.Printf("Pixel fingerprint: %s\n", util.ContentUUID(img.Pixels))
	return nil
}
