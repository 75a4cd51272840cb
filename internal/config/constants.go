package config

// MacroFileExt is the extension of macro source files.
const MacroFileExt = ".ijm"

// MacroFileExtensions are all recognized macro source file extensions
var MacroFileExtensions = []string{MacroFileExt, ".txt", ".macro"}

// Configuration file names, in lookup order.
const (
	ConfigFileName    = "macroext.yaml"
	ConfigFileNameAlt = "macroext.yml"
	GenConfigFileName = "extgen.yaml"
)

// Built-in macro function names
const (
	PrintFuncName    = "print"
	NewArrayFuncName = "newArray"
	LengthOfFuncName = "lengthOf"
	InstallFuncName  = "install"
)

// DefaultDialTimeoutSeconds bounds how long a remote extension set may take
// to connect.
const DefaultDialTimeoutSeconds = 5
