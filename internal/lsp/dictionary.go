package lsp

// hoverDocs documents the ErgoScript globals, functions and types.
var hoverDocs = map[string]string{
	"HEIGHT":       "**HEIGHT**: Int\n\nCurrent blockchain height",
	"SELF":         "**SELF**: Box\n\nThe box being spent by this transaction",
	"INPUTS":       "**INPUTS**: Coll[Box]\n\nCollection of all input boxes of the spending transaction",
	"OUTPUTS":      "**OUTPUTS**: Coll[Box]\n\nCollection of all output boxes of the spending transaction",
	"CONTEXT":      "**CONTEXT**: Context\n\nThe context of the current transaction",
	"Global":       "**Global**: Global\n\nGlobal functions and constants",
	"sigmaProp":    "**sigmaProp**(condition: Boolean): SigmaProp\n\nConverts boolean to SigmaProp",
	"proveDlog":    "**proveDlog**(value: GroupElement): SigmaProp\n\nCreates a sigma proposition for discrete log proof",
	"blake2b256":   "**blake2b256**(input: Coll[Byte]): Coll[Byte]\n\nBlake2b 256-bit hash function",
	"sha256":       "**sha256**(input: Coll[Byte]): Coll[Byte]\n\nSHA-256 hash function",
	"Box":          "**Box**\n\nRepresents a box (UTXO) in Ergo blockchain",
	"SigmaProp":    "**SigmaProp**\n\nSigma proposition that can be proven via zero-knowledge proof",
	"GroupElement": "**GroupElement**\n\nElliptic curve point",
	"BigInt":       "**BigInt**\n\n256-bit signed integer",
	"Coll":         "**Coll[T]**\n\nCollection type",
	"AvlTree":      "**AvlTree**\n\nAuthenticated AVL+ tree",
}

var completionItems = []completionItem{
	{Label: "HEIGHT", Kind: completionItemKindVariable, Detail: "Int", Documentation: "Current blockchain height"},
	{Label: "SELF", Kind: completionItemKindVariable, Detail: "Box", Documentation: "The box being spent"},
	{Label: "INPUTS", Kind: completionItemKindVariable, Detail: "Coll[Box]", Documentation: "Input boxes of the transaction"},
	{Label: "OUTPUTS", Kind: completionItemKindVariable, Detail: "Coll[Box]", Documentation: "Output boxes of the transaction"},
	{Label: "CONTEXT", Kind: completionItemKindVariable, Detail: "Context", Documentation: "Transaction context"},
	{Label: "Global", Kind: completionItemKindVariable, Detail: "Global", Documentation: "Global functions and constants"},

	{Label: "val", Kind: completionItemKindKeyword, Documentation: "Declare a value"},
	{Label: "def", Kind: completionItemKindKeyword, Documentation: "Define a function"},
	{Label: "if", Kind: completionItemKindKeyword, Documentation: "Conditional expression"},
	{Label: "else", Kind: completionItemKindKeyword, Documentation: "Else branch"},

	snippet("sigmaProp", "(Boolean) => SigmaProp", "Convert boolean to SigmaProp", "sigmaProp($1)"),
	snippet("proveDlog", "(GroupElement) => SigmaProp", "Create discrete log proof", "proveDlog($1)"),
	snippet("blake2b256", "(Coll[Byte]) => Coll[Byte]", "Blake2b 256-bit hash", "blake2b256($1)"),
	snippet("sha256", "(Coll[Byte]) => Coll[Byte]", "SHA-256 hash", "sha256($1)"),
	snippet("deserialize", "(String) => T", "Deserialize from Base64", `deserialize[$1]("$2")`),

	{Label: "Box", Kind: completionItemKindClass, Documentation: "Box type"},
	{Label: "SigmaProp", Kind: completionItemKindClass, Documentation: "Sigma proposition type"},
	{Label: "GroupElement", Kind: completionItemKindClass, Documentation: "Elliptic curve point"},
	{Label: "BigInt", Kind: completionItemKindClass, Documentation: "256-bit signed integer"},
	{Label: "Int", Kind: completionItemKindClass, Documentation: "32-bit integer"},
	{Label: "Long", Kind: completionItemKindClass, Documentation: "64-bit integer"},
	{Label: "Boolean", Kind: completionItemKindClass, Documentation: "Boolean type"},
	{Label: "Coll", Kind: completionItemKindClass, Documentation: "Collection type", InsertText: "Coll[$1]", InsertTextFormat: insertTextFormatSnippet},
}

func snippet(label, detail, doc, insert string) completionItem {
	return completionItem{
		Label:            label,
		Kind:             completionItemKindFunction,
		Detail:           detail,
		Documentation:    doc,
		InsertText:       insert,
		InsertTextFormat: insertTextFormatSnippet,
	}
}
