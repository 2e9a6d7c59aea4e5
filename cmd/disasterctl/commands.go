package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	client "github.com/disasterwatch/client"
	"github.com/disasterwatch/client/internal/types"
)

// settleKey waits for the client to go idle and reports why key is not
// loaded, if it is not.
func settleKey(ctx context.Context, c *client.Client, key client.PartitionKey) error {
	if err := c.Settle(ctx); err != nil {
		return err
	}
	if st, ok := c.State(key); ok && st == client.StateFresh {
		return nil
	}
	if err := firstError(c); err != nil {
		return err
	}
	return fmt.Errorf("%s not loaded", key)
}

// firstError drains queued notices and returns the first failure.
func firstError(c *client.Client) error {
	for {
		select {
		case n := <-c.Notices():
			if n.Level == client.Error && n.Err != nil {
				return n.Err
			}
		default:
			return nil
		}
	}
}

// printNotices drains queued notices that are not successes.
func printNotices(w io.Writer, c *client.Client) {
	for {
		select {
		case n := <-c.Notices():
			if n.Level != client.Success {
				renderNotice(w, n)
			}
		default:
			return
		}
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active disasters",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, stop, err := startClient()
			if err != nil {
				return err
			}
			defer stop()
			ctx, cancel := commandContext(cmd)
			defer cancel()

			if err := settleKey(ctx, c, client.DisastersKey()); err != nil {
				return err
			}
			renderDisasters(cmd.OutOrStdout(), c.View().Disasters)
			return nil
		},
	}
}

func newCreateCmd() *cobra.Command {
	var title, location, description, tags string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a disaster owned by the acting user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, stop, err := startClient()
			if err != nil {
				return err
			}
			defer stop()
			ctx, cancel := commandContext(cmd)
			defer cancel()

			start := time.Now()
			d, err := c.CreateDisaster(ctx, client.CreateDisasterRequest{
				Title:        title,
				LocationName: location,
				Description:  description,
				Tags:         types.SplitTags(tags),
			})
			if err != nil {
				return err
			}
			log.Debug().Str("disaster_id", d.ID).Dur("elapsed", time.Since(start)).Msg("create disaster completed")
			fmt.Fprintf(cmd.OutOrStdout(), "Disaster created: %s - %s\n", d.ID, d.Title)

			// Let geocoding enrichment finish so its warning is not lost.
			if err := c.Settle(ctx); err != nil {
				return err
			}
			printNotices(cmd.ErrOrStderr(), c)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Disaster title (required)")
	cmd.Flags().StringVar(&location, "location", "", "Location name")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma separated tags")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <disaster-id>",
		Short: "Delete a disaster (owner or admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, stop, err := startClient()
			if err != nil {
				return err
			}
			defer stop()
			ctx, cancel := commandContext(cmd)
			defer cancel()

			// The list provides the owner for the local permission check.
			if err := c.Settle(ctx); err != nil {
				return err
			}
			if err := c.DeleteDisaster(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Disaster deleted: %s\n", args[0])
			return nil
		},
	}
}

func newSocialCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "social <disaster-id>",
		Short: "Show social media posts for a disaster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, stop, err := startClient()
			if err != nil {
				return err
			}
			defer stop()
			ctx, cancel := commandContext(cmd)
			defer cancel()

			if err := c.WatchSocialMedia(args[0]); err != nil {
				return err
			}
			if err := settleKey(ctx, c, client.SocialMediaKey(args[0])); err != nil {
				return err
			}
			for _, f := range c.View().SocialMedia {
				renderSocial(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
}

func newResourcesCmd() *cobra.Command {
	var lat, lon, radius float64

	cmd := &cobra.Command{
		Use:   "resources <disaster-id>",
		Short: "Show resources near a point for a disaster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, stop, err := startClient()
			if err != nil {
				return err
			}
			defer stop()
			ctx, cancel := commandContext(cmd)
			defer cancel()

			var q client.ResourceQuery
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") || cmd.Flags().Changed("radius") {
				q = client.ResourceQuery{Lat: lat, Lon: lon, Radius: radius}
			}
			key, err := c.WatchResources(args[0], q)
			if err != nil {
				return err
			}
			if err := settleKey(ctx, c, key); err != nil {
				return err
			}
			for _, l := range c.View().Resources {
				renderResources(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 40.7128, "Latitude")
	cmd.Flags().Float64Var(&lon, "lon", -74.0060, "Longitude")
	cmd.Flags().Float64Var(&radius, "radius", 10000, "Radius in meters")

	return cmd
}

func newUpdatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "updates <disaster-id>",
		Short: "Show official updates for a disaster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, stop, err := startClient()
			if err != nil {
				return err
			}
			defer stop()
			ctx, cancel := commandContext(cmd)
			defer cancel()

			if err := c.WatchOfficialUpdates(args[0]); err != nil {
				return err
			}
			if err := settleKey(ctx, c, client.OfficialUpdatesKey(args[0])); err != nil {
				return err
			}
			for _, l := range c.View().OfficialUpdates {
				renderUpdates(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}
}

func newReportCmd() *cobra.Command {
	var content, imageURL string

	cmd := &cobra.Command{
		Use:   "report <disaster-id>",
		Short: "Submit a citizen report, verifying its image if one is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := commandContext(cmd)
			defer cancel()

			v, err := c.SubmitReport(ctx, args[0], client.ReportRequest{Content: content, ImageURL: imageURL})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Report submitted")
			if v != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Image verification: %s %s\n", v.Status, v.Analysis)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "Report text (required)")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "Image URL to verify")
	_ = cmd.MarkFlagRequired("content")

	return cmd
}

func newGeocodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "geocode <text>...",
		Short: "Extract and resolve a location from free text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := commandContext(cmd)
			defer cancel()

			res, err := c.Geocode(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Location: %s\n", res.LocationName)
			if res.Coordinates != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Coordinates: %g, %g\n", res.Coordinates.Lat, res.Coordinates.Lng)
			}
			if res.FormattedAddress != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Address: %s\n", res.FormattedAddress)
			}
			return nil
		},
	}
}

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List the users that can be acted as",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			for _, u := range c.Roster() {
				marker := " "
				if u == c.User() {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, u)
			}
			return nil
		},
	}
}
