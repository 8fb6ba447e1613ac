package cmd

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/cloud66-oss/ipgeo/provider"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <ip>",
	Short: "Resolve a single address and print its record",
	Args:  cobra.ExactArgs(1),
	RunE:  execLookup,
}

var (
	lookupLang  string
	lookupLocal bool
)

func init() {
	lookupCmd.Flags().StringVar(&lookupLang, "lang", "", "preferred language of names")
	lookupCmd.Flags().BoolVar(&lookupLocal, "local", false, "use local databases only")
}

func execLookup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	resolver, reader, err := buildResolver(ctx)
	if err != nil {
		return fmt.Errorf("failed to open the local databases: %w", err)
	}
	defer reader.Close()

	info, err := resolver.Resolve(ctx, args[0], provider.ResolveOptions{
		Lang:      lookupLang,
		LocalOnly: lookupLocal,
	})
	if err != nil {
		return err
	}

	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	return nil
}
