package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Two guard ifs in a row with the same return can be merged:
	//   if a { return err }
	//   if b { return err }
	//   => if a || b { return err }
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)
}

// stdout carries the MCP stdio transport. Only cmd/ may print.
func stdout(m dsl.Matcher) {
	m.Match(`fmt.Println($*_)`, `fmt.Printf($*_)`, `fmt.Print($*_)`).
		Where(!m.File().PkgPath.Matches(`/cmd/`)).
		Report(`writes to stdout corrupt the stdio transport; log through *slog.Logger instead`)

	m.Match(`os.Stdout`).
		Where(!m.File().PkgPath.Matches(`/cmd/`)).
		Report(`os.Stdout is reserved for the stdio transport outside cmd/`)

	m.Match(`log.Printf($*_)`, `log.Println($*_)`, `log.Print($*_)`).
		Report(`use log/slog for structured logging`)
}

// jql strings are built through internal/domain/jql so values get quoted.
func jqlConcat(m dsl.Matcher) {
	m.Match(`fmt.Sprintf($f, $*_)`).
		Where(m["f"].Text.Matches(`(?i)(project|assignee|summary)\s*(=|~)`) &&
			!m.File().PkgPath.Matches(`/internal/domain/jql`)).
		Report(`build JQL with the jql package instead of formatting it by hand`)
}
