package cli

import (
	flag "github.com/spf13/pflag"

	"github.com/qipu-dev/qipu/internal/traversal"
)

// traverseFlags registers the flag set shared by tree and find-path (spec
// §4.7), returning accessors Exec reads after Flags.Parse.
type traverseFlags struct {
	direction         *string
	maxHops           *float64
	typeInclude       *[]string
	typeExclude       *[]string
	typedOnly         *bool
	inlineOnly        *bool
	semanticInversion *bool
	minValue          *int
	ignoreValue       *bool
}

func registerTraverseFlags(flags *flag.FlagSet) traverseFlags {
	def := traversal.Default()

	return traverseFlags{
		direction:         flags.String("direction", string(def.Direction), "out, in, or both"),
		maxHops:           flags.Float64("max-hops", def.MaxHops, "Maximum accumulated traversal cost"),
		typeInclude:       flags.StringSlice("type-include", nil, "Only follow these link types (repeatable)"),
		typeExclude:       flags.StringSlice("type-exclude", nil, "Never follow these link types (repeatable)"),
		typedOnly:         flags.Bool("typed-only", false, "Only follow typed frontmatter links"),
		inlineOnly:        flags.Bool("inline-only", false, "Only follow inline wiki links"),
		semanticInversion: flags.Bool("semantic-inversion", def.SemanticInversion, "Invert inbound edges to read forward"),
		minValue:          flags.Int("min-value", -1, "Exclude notes below this value"),
		ignoreValue:       flags.Bool("ignore-value", false, "Ignore note value when costing edges"),
	}
}

func (t traverseFlags) options() traversal.TreeOptions {
	opts := traversal.TreeOptions{
		Direction:         traversal.Direction(*t.direction),
		MaxHops:           *t.maxHops,
		TypeInclude:       *t.typeInclude,
		TypeExclude:       *t.typeExclude,
		TypedOnly:         *t.typedOnly,
		InlineOnly:        *t.inlineOnly,
		SemanticInversion: *t.semanticInversion,
		IgnoreValue:       *t.ignoreValue,
	}

	if *t.minValue >= 0 {
		v := *t.minValue
		opts.MinValue = &v
	}

	return opts
}
