// stylectl is the operator CLI: fetch sanitized styles, run the
// geometry utilities from scripts, and inspect resolved configuration.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tanbirz/manchitra/internal/adapters/styleapi"
	"github.com/tanbirz/manchitra/internal/core/domain"
	"github.com/tanbirz/manchitra/internal/core/usecases"
	"github.com/tanbirz/manchitra/internal/pkg/config"
	"github.com/tanbirz/manchitra/internal/pkg/geospatial"
	"github.com/tanbirz/manchitra/internal/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stylectl",
		Short:         "Manchitra operator CLI",
		Long:          "Fetch sanitized map styles, run geometry utilities, inspect configuration.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		newFetchCmd(),
		newCircleCmd(),
		newDistanceCmd(),
		newWithinCmd(),
		newConfigCmd(),
	)
	return root
}

// loadConfig resolves configuration the same way the daemons do, with
// logging quieted so command output stays parseable.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load("stylectl")
	if err != nil {
		return nil, err
	}
	logging.Setup("error", "text")
	return cfg, nil
}

// ---- fetch ----

func newFetchCmd() *cobra.Command {
	var (
		key    string
		out    string
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch and sanitize the provider style document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if key == "" {
				key = cfg.Style.APIKey
			}
			if key == "" {
				return errors.New("an API key is required: pass --key or set style.api_key")
			}

			client := styleapi.New(
				cfg.Style.Endpoint,
				time.Duration(cfg.Style.TimeoutSeconds)*time.Second,
				cfg.Style.RateLimit,
				cfg.Style.RateBurst,
			)
			styles := usecases.NewStyleService(client, nil, 0)

			doc, err := styles.Fetch(cmd.Context(), key)
			if err != nil {
				return err
			}

			data, err := marshalJSON(doc, pretty)
			if err != nil {
				return err
			}

			if out != "" {
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(data), out)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "provider API key (default: style.api_key)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the document to a file instead of stdout")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return cmd
}

// ---- circle ----

func newCircleCmd() *cobra.Command {
	var (
		lat, lng, radiusKm float64
		segments           int
	)

	cmd := &cobra.Command{
		Use:   "circle",
		Short: "Sample a circle polygon as a GeoJSON feature",
		RunE: func(cmd *cobra.Command, args []string) error {
			center := domain.Coordinate{Lng: lng, Lat: lat}
			if !center.Valid() {
				return errors.New("center out of range")
			}

			ring, err := geospatial.CircleRing(center, radiusKm, segments)
			if err != nil {
				return err
			}

			feature := geojson.NewFeature(orb.Polygon{ringToOrb(ring)})
			feature.Properties = geojson.Properties{
				"radius_km": radiusKm,
				"segments":  segments,
				"center":    []float64{center.Lng, center.Lat},
			}
			return printJSON(cmd, feature, true)
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "center latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "center longitude")
	cmd.Flags().Float64Var(&radiusKm, "radius-km", 0, "circle radius in kilometers")
	cmd.Flags().IntVar(&segments, "segments", geospatial.DefaultCircleSegments, "ring sample count")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	_ = cmd.MarkFlagRequired("radius-km")
	return cmd
}

// ---- distance ----

func newDistanceCmd() *cobra.Command {
	var (
		fromLat, fromLng, toLat, toLng float64
		asGeoJSON                      bool
	)

	cmd := &cobra.Command{
		Use:   "distance",
		Short: "Great-circle distance between two points",
		RunE: func(cmd *cobra.Command, args []string) error {
			from := domain.Coordinate{Lng: fromLng, Lat: fromLat}
			to := domain.Coordinate{Lng: toLng, Lat: toLat}
			if !from.Valid() || !to.Valid() {
				return errors.New("coordinates out of range")
			}

			km := geospatial.HaversineKm(from, to)

			if asGeoJSON {
				feature := geojson.NewFeature(orb.LineString{
					{from.Lng, from.Lat},
					{to.Lng, to.Lat},
				})
				feature.Properties = geojson.Properties{"distance_km": km}
				return printJSON(cmd, feature, true)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%.3f km\n", km)
			return nil
		},
	}

	cmd.Flags().Float64Var(&fromLat, "from-lat", 0, "origin latitude")
	cmd.Flags().Float64Var(&fromLng, "from-lng", 0, "origin longitude")
	cmd.Flags().Float64Var(&toLat, "to-lat", 0, "destination latitude")
	cmd.Flags().Float64Var(&toLng, "to-lng", 0, "destination longitude")
	cmd.Flags().BoolVar(&asGeoJSON, "geojson", false, "emit a GeoJSON line feature")
	_ = cmd.MarkFlagRequired("from-lat")
	_ = cmd.MarkFlagRequired("from-lng")
	_ = cmd.MarkFlagRequired("to-lat")
	_ = cmd.MarkFlagRequired("to-lng")
	return cmd
}

// ---- within ----

func newWithinCmd() *cobra.Command {
	var (
		lat, lng  float64
		asGeoJSON bool
	)

	cmd := &cobra.Command{
		Use:   "within",
		Short: "Check whether a point lies inside the Bangladesh bounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			point := domain.Coordinate{Lng: lng, Lat: lat}
			within := domain.BangladeshBounds.Contains(point)

			if asGeoJSON {
				feature := geojson.NewFeature(orb.Point{point.Lng, point.Lat})
				feature.Properties = geojson.Properties{
					"within": within,
					"bounds": domain.BangladeshBounds,
				}
				return printJSON(cmd, feature, true)
			}

			if within {
				fmt.Fprintln(cmd.OutOrStdout(), "inside Bangladesh bounds")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "outside Bangladesh bounds")
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	cmd.Flags().BoolVar(&asGeoJSON, "geojson", false, "emit a GeoJSON point feature")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

// ---- config ----

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if cfg.Style.APIKey != "" {
				cfg.Style.APIKey = "[redacted]"
			}
			for i := range cfg.Watcher.Keys {
				cfg.Watcher.Keys[i] = "[redacted]"
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

// ---- helpers ----

func marshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func printJSON(cmd *cobra.Command, v any, pretty bool) error {
	data, err := marshalJSON(v, pretty)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func ringToOrb(ring domain.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(ring))
	for _, p := range ring {
		out = append(out, orb.Point{p.Lng, p.Lat})
	}
	return out
}
