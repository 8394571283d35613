package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/GannettDigital/graphql-typeconv/gql"
	"github.com/GannettDigital/graphql-typeconv/metadata"
)

// metadataEnv is read when --metadata is not given.
const metadataEnv = "TYPECONV_METADATA"

var errNoMetadata = errors.New("no metadata file, use --metadata or set " + metadataEnv)

// globalOptions are set by the persistent flags of the root command.
type globalOptions struct {
	metadataPath string
	logLevel     string
	prefix       string

	logger *slog.Logger
}

type convertOptions struct {
	class     string
	property  string
	root      string
	operation string
	input     bool
	depth     int
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "typeconv",
		Short: "Convert API resource metadata into GraphQL types",
		Long: `typeconv reads resource, property and enum metadata from a YAML file and
converts it into the GraphQL types a server would expose for it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", opts.logLevel, err)
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.metadataPath, "metadata", os.Getenv(metadataEnv),
		"YAML file describing the resources (default from $"+metadataEnv+")")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn",
		"Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&opts.prefix, "prefix", "",
		"Prefix for the name of every generated type")

	rootCmd.AddCommand(newResolveCmd(opts), newConvertCmd(opts), newSchemaCmd(opts))
	return rootCmd
}

func newResolveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <type>...",
		Short: "Resolve GraphQL type references such as \"[Int!]!\"",
		Long: `Resolve GraphQL type references. Builtin scalars are always known, the types
built for the metadata are known when --metadata is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ob, err := opts.objectBuilder(false)
			if err != nil {
				return err
			}
			if _, err := ob.BuildTypes(); err != nil {
				return err
			}

			for _, typeName := range args {
				gtype, err := ob.TypeConverter().ResolveType(typeName)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), gtype.String())
			}
			return nil
		},
	}
}

func newConvertCmd(opts *globalOptions) *cobra.Command {
	copts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert the type of a property, or a class as an object, into a GraphQL type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ob, err := opts.objectBuilder(true)
			if err != nil {
				return err
			}
			return runConvert(cmd, ob, copts)
		},
	}

	cmd.Flags().StringVar(&copts.class, "class", "", "Class to convert, or owning the property")
	cmd.Flags().StringVar(&copts.property, "property", "", "Property of the class to convert")
	cmd.Flags().StringVar(&copts.root, "root", "", "Root resource class, defaults to --class")
	cmd.Flags().StringVar(&copts.operation, "operation", "", "GraphQL operation of the root resource")
	cmd.Flags().BoolVar(&copts.input, "input", false, "Convert for use in an input object")
	cmd.Flags().IntVar(&copts.depth, "depth", 0, "Nesting level of the property within the root resource")
	_ = cmd.MarkFlagRequired("class")
	return cmd
}

func runConvert(cmd *cobra.Command, ob *gql.ObjectBuilder, copts *convertOptions) error {
	md := ob.Metadata()
	root := copts.root
	if root == "" {
		root = copts.class
	}

	var rootOperation *metadata.Operation
	resources, err := md.ResourceCollection(root)
	switch {
	case errors.Is(err, metadata.ErrResourceClassNotFound):
		if copts.operation != "" {
			return fmt.Errorf("root resource %q is unknown, --operation can not be used", root)
		}
	case err != nil:
		return err
	case resources.HasGraphQL():
		rootOperation, err = resources.GraphQLOperation(copts.operation)
		if err != nil {
			return fmt.Errorf("root resource %q: operation %q: %w", root, copts.operation, err)
		}
	}

	t := metadata.NewType(metadata.BuiltinObject, false, copts.class)
	if copts.property != "" {
		var popts metadata.PropertyOptions
		if rootOperation != nil {
			popts.NormalizationGroups = rootOperation.NormalizationGroups
			popts.DenormalizationGroups = rootOperation.DenormalizationGroups
		}
		prop, err := md.Property(copts.class, copts.property, popts)
		if err != nil {
			return err
		}
		t = prop.Type
	}

	gtype, err := ob.TypeConverter().ConvertType(t, copts.input, rootOperation, copts.class, root, copts.property, copts.depth)
	if err != nil {
		return err
	}
	if gtype == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "null")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), gtype.String())
	return nil
}

func newSchemaCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print every GraphQL type built for the resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ob, err := opts.objectBuilder(true)
			if err != nil {
				return err
			}
			gtypes, err := ob.BuildTypes()
			if err != nil {
				return err
			}
			opts.logger.Info("built types", slog.Int("count", len(gtypes)))
			return gql.PrintTypes(cmd.OutOrStdout(), gtypes)
		},
	}
}

// objectBuilder loads the metadata file and creates the ObjectBuilder for it.
// Without a metadata file an empty registry is used unless one is required.
func (opts *globalOptions) objectBuilder(requireMetadata bool) (*gql.ObjectBuilder, error) {
	registry := metadata.NewRegistry()
	switch {
	case opts.metadataPath != "":
		var err error
		registry, err = metadata.LoadFile(opts.metadataPath)
		if err != nil {
			return nil, err
		}
		opts.logger.Debug("loaded metadata",
			slog.String("path", opts.metadataPath),
			slog.Int("resources", len(registry.ResourceClasses())),
		)
	case requireMetadata:
		return nil, errNoMetadata
	}

	return gql.NewObjectBuilder(registry, opts.prefix, opts.logger)
}
