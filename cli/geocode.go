package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"geocoding/manager"
)

func newForwardCmd(a *app, f *flags) *cobra.Command {
	var (
		limit       int
		countries   []string
		bbox        []float64
		language    string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "forward <address>...",
		Short: "Find coordinates for one or more addresses",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(a.config.Provider)
			if err != nil {
				return err
			}

			template := manager.Query{
				Limit:        limit,
				CountryCodes: countries,
				Language:     language,
			}
			if len(bbox) > 0 {
				if len(bbox) != 4 {
					return manager.InvalidQuery(m.Provider(), "bbox needs 4 values: minlon,minlat,maxlon,maxlat")
				}
				b := manager.NewBounds(bbox[0], bbox[1], bbox[2], bbox[3])
				template.Bounds = &b
			}

			if len(args) == 1 {
				template.Address = args[0]
				results, err := m.Forward(cmd.Context(), template)
				if err != nil {
					return err
				}
				return printResults(cmd, f.asJSON, m.Provider(), args[0], results)
			}

			var failed error
			for _, batch := range m.ForwardAll(cmd.Context(), concurrency, template, args...) {
				if batch.Err != nil {
					cmd.PrintErrf("%s: %s\n", batch.Address, batch.Err)
					failed = batch.Err
					continue
				}
				if err := printResults(cmd, f.asJSON, m.Provider(), batch.Address, batch.Results); err != nil {
					return err
				}
			}
			return failed
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum number of results")
	cmd.Flags().StringSliceVar(&countries, "countrycodes", nil, "restrict results to these ISO 3166-1 alpha-2 codes")
	cmd.Flags().Float64SliceVar(&bbox, "bbox", nil, "restrict search to minlon,minlat,maxlon,maxlat")
	cmd.Flags().StringVar(&language, "language", "", "preferred result language")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "parallel requests when several addresses are given")

	return cmd
}

func newReverseCmd(a *app, f *flags) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "reverse <lat> <lon>",
		Short: "Find the address at a coordinate pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(a.config.Provider)
			if err != nil {
				return err
			}

			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return manager.InvalidQuery(m.Provider(), "latitude %q: %v", args[0], err)
			}
			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return manager.InvalidQuery(m.Provider(), "longitude %q: %v", args[1], err)
			}

			query := manager.ReverseQuery(lat, lon)
			query.Language = language

			results, err := m.ReverseWith(cmd.Context(), query)
			if err != nil {
				return err
			}
			return printResults(cmd, f.asJSON, m.Provider(), args[0]+","+args[1], results)
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "preferred result language")

	return cmd
}
