package pattern

// ParseMode selects how much of the computed state a parse rebuilds.
type ParseMode int

const (
	// FullParse rebuilds everything: tools, history, graph and blocks.
	FullParse ParseMode = iota
	// LiteParse recomputes values, keeping tool identity, increments and
	// the graph.
	LiteParse
	// FullLiteParse is a lite parse that also rereads increments.
	FullLiteParse
	// LitePiecePartial lite-parses only the active block.
	LitePiecePartial
)

func (m ParseMode) String() string {
	switch m {
	case FullParse:
		return "full"
	case LiteParse:
		return "lite"
	case FullLiteParse:
		return "full_lite"
	case LitePiecePartial:
		return "lite_piece_partial"
	default:
		return "unknown"
	}
}

// ParseModeFromString converts the names returned by String.
func ParseModeFromString(s string) (ParseMode, bool) {
	for _, m := range []ParseMode{FullParse, LiteParse, FullLiteParse, LitePiecePartial} {
		if m.String() == s {
			return m, true
		}
	}
	return 0, false
}

// DrawMode is the presentation layer's current view.
type DrawMode int

const (
	DrawCalculation DrawMode = iota
	DrawModeling
)

func (m DrawMode) String() string {
	if m == DrawModeling {
		return "modeling"
	}
	return "calculation"
}
