package main

import (
	"image/color"

	"github.com/pkg/errors"

	"usbpanel/pkg/config"
	"usbpanel/pkg/layer"
	"usbpanel/pkg/source"
)

var icons = map[string]string{
	"play":  layer.PlaySVG,
	"pause": layer.PauseSVG,
}

func buildLayer(lc config.LayerConfig, loader *source.Loader) (layer.Layer, error) {
	switch lc.Kind() {
	case config.KindImage, config.KindURL:
		fit, err := source.ParseFit(lc.Fit)
		if err != nil {
			return nil, err
		}

		var pix []byte
		if lc.Image != "" {
			pix, err = loader.Fitted(fit).File(lc.Image, lc.Width, lc.Height)
		} else {
			pix, err = loader.Fitted(fit).URL(lc.URL, lc.Width, lc.Height)
		}
		if err != nil {
			return nil, err
		}
		return layer.NewImage(lc.X, lc.Y, lc.Width, lc.Height, pix)

	case config.KindText:
		fg, err := config.ParseColor(lc.Color, color.White)
		if err != nil {
			return nil, err
		}
		bg, err := config.ParseColor(lc.Background, color.Transparent)
		if err != nil {
			return nil, err
		}
		return layer.NewText(lc.X, lc.Y, lc.Width, lc.Height, lc.Text, layer.WithColors(fg, bg))

	case config.KindProgress:
		bar := layer.NewProgressBar(lc.X, lc.Y, lc.Width, lc.Height)
		if err := bar.SetProgress(*lc.Progress); err != nil {
			return nil, err
		}
		return bar, nil

	case config.KindIcon:
		svg, ok := icons[lc.Icon]
		if !ok {
			return nil, errors.Errorf("unknown icon %q", lc.Icon)
		}
		fg, err := config.ParseColor(lc.Color, color.White)
		if err != nil {
			return nil, err
		}
		return layer.NewIcon(lc.X, lc.Y, lc.Width, svg, fg)
	}

	return nil, errors.Errorf("layer at %d,%d has no single source", lc.X, lc.Y)
}
