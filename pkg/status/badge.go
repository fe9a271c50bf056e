package status

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantSuccess     Variant = "success"
	VariantDestructive Variant = "destructive"
	VariantOutline     Variant = "outline"
	VariantSecondary   Variant = "secondary"
)

// Color is a raw CSS color used by booking badges.
type Color string

const (
	ColorLightGreen Color = "#86efac"
	ColorRed        Color = "#ef4444"
	ColorBlue       Color = "#3b82f6"
	ColorAmber      Color = "#f59e0b"
	ColorGray       Color = "#9ca3af"
)

type Badge struct {
	Variant Variant `json:"variant"`
	Color   Color   `json:"color,omitempty"`
}
