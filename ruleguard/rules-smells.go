package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Dos "guard if" seguidos con el mismo return => combinables con ||
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)
}

// upstreamCalls keeps outbound requests cancellable by the inbound request.
func upstreamCalls(m dsl.Matcher) {
	m.Match(`http.NewRequest($method, $url, $body)`).
		Where(!m.File().Name.Matches(`_test\.go$`)).
		Report(`upstream request without a context; use http.NewRequestWithContext`).
		Suggest(`http.NewRequestWithContext(ctx, $method, $url, $body)`)

	m.Match(`http.Get($url)`, `http.Post($url, $ct, $body)`, `http.DefaultClient.Do($req)`).
		Where(!m.File().Name.Matches(`_test\.go$`)).
		Report(`package-level HTTP client has no timeout; use the adapter's *http.Client`)

	m.Match(`context.Background()`).
		Where(m.File().PkgPath.Matches(`/internal/(api|domain)/`) && !m.File().Name.Matches(`_test\.go$`)).
		Report(`request-scoped code should derive from the request context`)
}

// profiles keeps nutrient arithmetic inside NutrientProfile helpers.
func profiles(m dsl.Matcher) {
	m.Match(`math.Round($x * 10) / 10`).
		Where(m.File().PkgPath.Matches(`/internal/domain/nutrition$`) && !m.File().Name.Matches(`^profile\.go$`)).
		Report(`use round1 so every profile field is rounded the same way`).
		Suggest(`round1($x)`)

	m.Match(`$p.$f * $w / 100`).
		Where(m["p"].Type.Is(`NutrientProfile`) || m["p"].Type.Is(`nutrition.NutrientProfile`)).
		Report(`scale profiles with NutrientProfile.Scale so weights are normalized and rounded`)
}

// logging routes every log line through apex/log.
func logging(m dsl.Matcher) {
	m.Import(`log`)
	m.Match(`log.Printf($*_)`, `log.Println($*_)`, `log.Fatalf($*_)`).
		Where(m.File().Imports(`log`)).
		Report(`standard library log bypasses the structured logger; use github.com/apex/log`)

	m.Match(`fmt.Errorf($f, $*_, $err)`).
		Where(m["err"].Type.Is(`error`) && !m["f"].Text.Matches(`%w`)).
		Report(`wrap errors with %w so callers can match them with errors.Is`)
}
