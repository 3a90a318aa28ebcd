package render

// Theme holds colors for graph rendering.
type Theme struct {
	Background string
	NodeFill   string
	NodeBorder string
	TextColor  string

	// Control flow edge colors.
	EdgeTaken       string // conditional branch taken
	EdgeFallthrough string // conditional branch not taken
	EdgeHandler     string // into an exception handler
	EdgeSwitch      string // switch case
	EdgeDirect      string // unconditional, calls, superclass

	// Type hierarchy edge colors.
	EdgeInterface string // declared interface
	EdgeInjected  string // interface added by injection

	// Node accents.
	TermFill     string // blocks ending in return or athrow
	HandlerFill  string // exception handler entries
	ExternalText string // classes outside the group
}

// NASA is the NASA/Bauhaus theme: geometric, monochrome, sparse color.
var NASA = Theme{
	Background: "#F5F5F5",
	NodeFill:   "white",
	NodeBorder: "#1A1A1A",
	TextColor:  "#1A1A1A",

	EdgeTaken:       "#0B3D91", // NASA blue
	EdgeFallthrough: "#FC3D21", // NASA red
	EdgeHandler:     "#E65100", // deep orange
	EdgeSwitch:      "#00695C", // teal
	EdgeDirect:      "#424242", // dark gray

	EdgeInterface: "#9E9E9E",
	EdgeInjected:  "#0B3D91",

	TermFill:     "#ECEFF1", // blue-gray 50
	HandlerFill:  "#FFF3E0", // orange 50
	ExternalText: "#9E9E9E",
}
