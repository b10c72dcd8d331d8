// Package lang parses ObjectText, the nested keyed configuration language
// used to describe game objects, into a syntax tree with diagnostics.
//
// The parser is hand-written recursive descent. It never fails outright:
// [Parse] always returns a [Document], and each malformed statement is
// dropped, described by a [Diagnostic], and skipped up to the next
// statement or closing bracket.
//
// # Grammar
//
// Informal EBNF:
//
//	Document   → Statement* EOF
//	Statement  → Identifier ( '=' Value | ':' Extension+ Body | Body ) Sep?
//	Body       → '{' Statement* '}' | '[' ( Statement | Value )* ']'
//	Extension  → Path Sep?
//	Sep        → ',' | ';'
//	Value      → String | Verbatim | [Identifier] ['=' | ':' Extension+] Body
//	           | Expr | Bool | Identifier | BareString
//	Expr       → Expr ('+' | '-') Term | Term
//	Term       → Term ('*' | '/') Unary | Unary
//	Unary      → '-' Unary | Number | '&' Path | '(' Expr ')' | Call
//	Call       → Identifier '(' ( Expr ','? )+ ')'
//	Path       → '<' file '>' ( '/' Identifier )*
//	           | ( './' | '~/' | '/' )? Step ( '/' Step )*
//	Step       → Identifier | '..' | '^'
//
// Value forms are tried in the order listed, each from the same starting
// point. Expressions, booleans and identifiers are accepted only if the
// value ends there, so that a line such as
//
//	Description = 5 apples, 3 pears
//
// falls through to a bare string instead of stopping after "5".
//
// An identifier immediately followed by '(' is read as a function call
// before any bare string is considered. Whether such text was meant as a
// call is ambiguous in the language itself; "f(x)" is a [Call], while
// "f(x) and more" does not end at the call and is a [BareString]. A call
// takes at least one argument; "f()" is a bare string.
//
// A bare string never starts with '=', ':', ')', '*' or '/'. A value such
// as "= 3" is reported as an unexpected token.
//
// # Example
//
//	Part : <base.rules>/Part, ^/Common
//	{
//		ID = cosmoteer.thruster
//		Mass = .5 * &../BaseMass
//		Rotation = 90d
//		Name = "Small Thruster"
//		Components
//		[
//			{ Type = Sprite; Texture = thruster.png }
//		]
//	}
//
// References and extensions are recorded, never resolved, and arithmetic
// is never evaluated. [Document.Query] selects nodes with expr-lang
// predicates, and [Document.Format] writes canonical source back out.
package lang
