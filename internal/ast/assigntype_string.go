package ast

func (a AssignType) String() string {
	switch a {
	case ILLEGAL_ASSIGN:
		return "ILLEGAL_ASSIGN"
	case ASSIGN:
		return "="
	case PLUS_ASSIGN:
		return "+="
	case MINUS_ASSIGN:
		return "-="
	case STAR_ASSIGN:
		return "*="
	case SLASH_ASSIGN:
		return "/="
	case PERCENT_ASSIGN:
		return "%="
	default:
		return "UNKNOWN"
	}
}
