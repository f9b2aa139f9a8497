package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jpfielding/raster.go/pkg/jpeg"
	"github.com/jpfielding/raster.go/pkg/png"
	"github.com/jpfielding/raster.go/pkg/raster"
	"github.com/spf13/cobra"
)

// NewConvertCmd creates the convert cobra command
func NewConvertCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "decode an image and re-encode it as PNG or JPEG",
		Long:  "decode an image and re-encode it as PNG or JPEG",
		RunE: func(cmd *cobra.Command, args []string) error {
			uri, _ := cmd.Flags().GetString("uri")
			out, _ := cmd.Flags().GetString("out")
			format, _ := cmd.Flags().GetString("format")
			quality, _ := cmd.Flags().GetInt("quality")
			if out == "" {
				return fmt.Errorf("output path is required")
			}

			data, err := readInput(ctx, uri)
			if err != nil {
				return err
			}

			var pixels []byte
			var width, height int
			switch raster.DetectFormat(data) {
			case raster.FormatPNG:
				img, err := png.Decode(data, nil)
				if err != nil {
					return err
				}
				pixels, width, height = img.Pixels, img.Width, img.Height
			case raster.FormatJPEG:
				img, err := jpeg.Decode(data)
				if err != nil {
					return err
				}
				pixels, width, height = img.Pixels, img.Width, img.Height
			default:
				return fmt.Errorf("unrecognized image format")
			}

			var encoded []byte
			switch format {
			case "png":
				encoded, err = png.Encode(pixels, width, height, nil)
			case "jpeg", "jpg":
				encoded, err = jpeg.Encode(pixels, width, height, &jpeg.Options{Quality: quality})
			default:
				return fmt.Errorf("output format must be png or jpeg")
			}
			if err != nil {
				return err
			}
			return os.WriteFile(out, encoded, 0644)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("uri", "u", "-", "input image URI (file path, - for stdin, or http URL)")
	pf.StringP("out", "o", "", "output file path")
	pf.StringP("format", "f", "png", "output format (png|jpeg)")
	pf.Int("quality", jpeg.DefaultQuality, "JPEG quality 1-100")
	return cmd
}
