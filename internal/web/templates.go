package web

import (
	"bytes"
	"html/template"

	"github.com/jaminalder/hasami-shogi/internal/app"
	"github.com/jaminalder/hasami-shogi/internal/domain"
)

type templates struct {
	game  *template.Template
	board *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"cellClass": func(c domain.Cell) string {
			switch c {
			case domain.Red:
				return "red"
			case domain.Black:
				return "black"
			default:
				return "empty"
			}
		},
		"colLabels": func() []int { return []int{1, 2, 3, 4, 5, 6, 7, 8, 9} },
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Hasami Shogi</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
td{width:2em;height:2em;text-align:center;border:1px solid #999}
td.red{color:#c00;font-weight:bold} td.black{color:#000;font-weight:bold} td.empty{color:#bbb}
</style>
</head><body>{{template "content" .}}</body></html>`))
	// Define the board template within the same set so game can include it
	template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Hasami Shogi</h1>
{{if .}}<ul>{{range .}}
  <li><a href="/game/{{.ID}}">{{.ID}}</a> {{.State}} after {{.Moves}} moves</li>{{end}}
</ul>{{else}}<p>No games.</p>{{end}}`))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<div hx-ext="sse" hx-sse="connect:/game/{{.ID}}/events">
  <div id="board" hx-sse="swap:board">{{template "board" .}}</div>
</div>`))
	// Standalone board template used for fragment rendering
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

const boardTemplate = `
<div id="board">
  <p class="status">{{.Status}}</p>
  <p class="captured">RED has captured {{.CapturedRed}}, BLACK has captured {{.CapturedBlack}}</p>
  <table>
    <tr><th></th>{{range colLabels}}<th>{{.}}</th>{{end}}</tr>
    {{range .Rows}}
    <tr><th>{{.Label}}</th>{{range .Cells}}<td class="{{cellClass .Cell}}" title="{{.Square}}">{{printf "%c" .Cell.Symbol}}</td>{{end}}</tr>
    {{end}}
  </table>
</div>
`

// boardView is the data handed to the board template.
type boardView struct {
	ID            string
	Status        string
	CapturedRed   int
	CapturedBlack int
	Rows          []rowView
}

type rowView struct {
	Label string
	Cells []cellView
}

type cellView struct {
	Square string
	Cell   domain.Cell
}

// gameSummary is one line of the index page.
type gameSummary struct {
	ID    string
	State string
	Moves int
}

func newBoardView(gs app.GameState) boardView {
	g := gs.Game
	v := boardView{
		ID:            gs.ID,
		Status:        status(&g),
		CapturedRed:   g.Captured(domain.Red),
		CapturedBlack: g.Captured(domain.Black),
		Rows:          make([]rowView, 0, domain.Size),
	}
	for r := 0; r < domain.Size; r++ {
		row := rowView{Label: string(rune('a' + r)), Cells: make([]cellView, 0, domain.Size)}
		for c := 0; c < domain.Size; c++ {
			sq, _ := domain.SquareAt(r, c)
			row.Cells = append(row.Cells, cellView{Square: sq.String(), Cell: g.At(sq)})
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}

func status(g *domain.Game) string {
	if w := g.Winner(); w != domain.Empty {
		return w.String() + " won"
	}
	return g.Turn().String() + " to move"
}
