// Package help holds the Smoke language guide shown by `smoke doc`.
package help

import (
	"fmt"
	"sort"
	"strings"
)

// QUICKREF is the overview printed when no topic is given.
const QUICKREF = `Smoke v0.1 quick reference

  let x = 1 + 2 * 3;        declare x in the current scope
  fn add(a, b) a + b;       declare a function
  add(x, 4)                 call it; the program's value is the last expression
  { let t = 1; t * 2 }      a block opens a scope and yields its last value

Values: nil, true/false, integers, floats, "strings", functions.
Run a program with ` + "`smoke run prog.smk`" + `, or start a session with ` + "`smoke repl`" + `.

Topics (smoke doc <topic>):
  syntax       tokens, expressions and operator precedence
  types        value kinds, coercion and equality
  scoping      blocks, declarations and dynamic scope
  errors       diagnostic codes and exit codes
  config       .smoke.yaml settings
  examples     short complete programs
`

// Topics maps topic names to their text.
var Topics = map[string]string{
	"syntax": `Syntax

A program is a sequence of expressions separated by ";".

  literals      nil  true  false  42  3.5  1e3  "text"
  names         letters, digits and "_", not starting with a digit
  declaration   let name = expr
  function      fn name(p1, p2) body
  block         { expr; expr }
  grouping      (expr; expr)
  call          callee(arg, arg)

Strings have no escape sequences. if, else, for, while and return are
reserved and cannot be used.

Binary operators fold left. Run ` + "`smoke doc syntax --index`" + ` for the
precedence table.
`,
	"types": `Types

  Nil        nil
  Bool       true, false
  Integer    64-bit signed; + - * wrap on overflow, / truncates toward zero
  Float      64-bit IEEE; 1.0 / 0 is +Inf
  String     "text"
  Function   declared with fn; carries its parameters and body only

Arithmetic and ordering widen Integer to Float when either side is a Float.
== and != never coerce: 1 == 1.0 is false, and values of different kinds
are always unequal. ! takes only Bool.
`,
	"scoping": `Scoping

let declares in the innermost scope; declaring a name again in the same
scope replaces it. Blocks, parentheses and calls each open a scope that is
discarded when they finish.

Functions do not capture the scope they were declared in. A call sees its
parameters plus every scope of its caller, so names resolve dynamically:

  fn getx() x;
  fn f(x) getx();
  f(5)              // 5
`,
	"errors": `Errors

  E_LEX        unrecognized input                       exit 2
  E_PARSE      malformed expression                     exit 2
  E_DUP_PARAM  parameter listed twice (smoke check)     exit 2
  E_UNBOUND    name not in scope                        exit 4
  E_TYPE       operand or callee of the wrong kind      exit 4
  E_ARITY      wrong number of arguments                exit 4
  E_DIV_ZERO   integer division by zero                 exit 4
  E_DEPTH      evaluation nested too deeply             exit 4
  E_IO         file could not be read or written        exit 1
  E_CONFIG     invalid configuration or flag            exit 1
  E_INTERNAL   toolchain bug                            exit 70

Every operand counts toward the depth limit, including each step of a flat
chain: 1 + 1 + ... + 1 with more terms than max_depth fails with E_DEPTH even
though it parses. Raise max_depth or split the chain with let.

smoke check reports the statically certain ones without running the program
and exits 2 when it finds any. Diagnostics print as JSON unless --pretty is
given.
`,
	"config": `Configuration

Settings are read from the first of --config <file>, ./.smoke.yaml and
~/.smoke/config.yaml, over built-in defaults. Unknown keys are rejected.

  max_depth: 10000          evaluation nesting limit
  max_parse_depth: 512      parser nesting limit
  color: auto               auto, always or never
  prompt: "smoke> "         REPL prompt
  history_file: ~/.smoke/history
  trace: false              write trace events for every run

--max-depth and --color override the file.
`,
	"examples": `Examples

Higher-order functions:

  fn twice(f, x) f(f(x));
  fn inc(n) n + 1;
  twice(inc, 5)                 // 7

Returning a function from a block:

  fn mk() { fn id(a) a; id };
  mk()(4)                       // 4

Mixed arithmetic:

  let r = 2;
  3.14159 * r * r               // 12.56636
`,
}

// TopicList is the topic order shown to users.
var TopicList = []string{"syntax", "types", "scoping", "errors", "config", "examples"}

// MatchTopic resolves an exact topic name or a unique prefix of one.
func MatchTopic(query string) (string, string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[q]; ok {
		return q, content, nil
	}
	if q == "" {
		return "", "", fmt.Errorf("empty topic")
	}

	var matches []string
	for _, name := range TopicList {
		if strings.HasPrefix(name, q) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return "", "", fmt.Errorf("unknown topic %q", query)
	case 1:
		return matches[0], Topics[matches[0]], nil
	}
	sort.Strings(matches)
	return "", "", fmt.Errorf("topic %q is ambiguous: %s", query, strings.Join(matches, ", "))
}

// OperatorLevel is one row of the precedence table.
type OperatorLevel struct {
	Level     string
	Operators []string
	Assoc     string
}

// Operators lists the operator levels from loosest to tightest binding.
var Operators = []OperatorLevel{
	{"equality", []string{"==", "!="}, "left"},
	{"comparison", []string{">", ">=", "<", "<="}, "left"},
	{"term", []string{"+", "-"}, "left"},
	{"factor", []string{"*", "/"}, "left"},
	{"unary", []string{"!", "-"}, "prefix"},
	{"call", []string{"f(...)"}, "left"},
}

// OperatorIndex renders Operators as a text table.
func OperatorIndex() string {
	var b strings.Builder
	b.WriteString("Operators, loosest first\n\n")
	for _, op := range Operators {
		fmt.Fprintf(&b, "  %-11s %-16s %s\n", op.Level, strings.Join(op.Operators, " "), op.Assoc)
	}
	fmt.Fprintf(&b, "\nTotal: %d levels\n", len(Operators))
	return b.String()
}
