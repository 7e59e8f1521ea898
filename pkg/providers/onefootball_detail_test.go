package providers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/onefootball-harvester/pkg/dates"
)

const articlePage = `<html><head>
<meta property="article:published_time" content="2024-05-12T10:00:00-03:00">
<meta itemprop="datePublished" content="2020-01-01T00:00:00Z">
</head><body>
<p>Outside the body</p>
<div data-testid="article-body">
  <div class="ArticleParagraph_wrapper__x1"><p>O Flamengo venceu por 2 a 0.</p></div>
  <p>Loose paragraph outside the wrapper</p>
  <div class="ArticleParagraph_wrapper__x1"><p>Gols de   Pedro e Arrascaeta.</p></div>
  <div class="ArticleParagraph_wrapper__x1"><p>O Flamengo venceu por 2 a 0.</p></div>
  <div class="ArticleParagraph_wrapper__x1"><p>Leia mais: o próximo jogo</p></div>
  <div class="ArticleParagraph_wrapper__x1"><p>https://onefootball.com/pt-br/noticias/outra-1</p></div>
  <div class="ArticleParagraph_wrapper__x1"><p>🔗 Link copiado</p></div>
  <div class="ArticleParagraph_wrapper__x1"><div class="ShareBar"><p>Compartilhar no X</p></div></div>
  <div class="ArticleParagraph_wrapper__x1"><iframe src="https://player"></iframe><p>O técnico elogiou o time.</p></div>
  <aside><div class="ArticleParagraph_wrapper__x1"><p>Sidebar text</p></div></aside>
</div>
</body></html>`

func TestDetailExtractorReadsBodyAndDate(t *testing.T) {
	got, err := DetailExtractor{Dates: dates.New(time.UTC)}.Extract([]byte(articlePage))
	require.NoError(t, err)

	require.Equal(t, "2024-05-12T13:00:00Z", got.PublishedAt)
	require.Equal(t, strings.Join([]string{
		"O Flamengo venceu por 2 a 0.",
		"Gols de Pedro e Arrascaeta.",
		"O técnico elogiou o time.",
	}, "\n"), got.BodyText)
}

func TestDetailExtractorWithoutContainer(t *testing.T) {
	page := `<html><body><div class="page"><p>Some text</p><time datetime="2024-05-12T13:00:00Z">12 mai</time></div></body></html>`

	got, err := DetailExtractor{}.Extract([]byte(page))
	require.NoError(t, err)
	require.Equal(t, "", got.BodyText)
	require.Equal(t, "2024-05-12T13:00:00Z", got.PublishedAt)
}

func TestDetailExtractorEmptyPage(t *testing.T) {
	got, err := DetailExtractor{}.Extract(nil)
	require.NoError(t, err)
	require.Equal(t, "", got.BodyText)
	require.Equal(t, "", got.PublishedAt)
}

func TestDetailExtractorFallsBackToArticleElement(t *testing.T) {
	page := `<html><body><article>
<div data-testid="article-paragraph"><p>Primeiro parágrafo.</p></div>
<div data-testid="article-paragraph"><p>Segundo parágrafo.</p></div>
</article></body></html>`

	got, err := DetailExtractor{}.Extract([]byte(page))
	require.NoError(t, err)
	require.Equal(t, "Primeiro parágrafo.\nSegundo parágrafo.", got.BodyText)
}

func TestDetailExtractorDateStrategyOrder(t *testing.T) {
	n := dates.New(time.UTC)
	cases := map[string]struct {
		page string
		want string
	}{
		"itemprop": {
			page: `<meta itemprop="datePublished" content="2024-01-02T03:04:05Z"><time datetime="2023-01-01T00:00:00Z"></time>`,
			want: "2024-01-02T03:04:05Z",
		},
		"meta name": {
			page: `<meta name="publish-date" content="2024-01-02"><time datetime="2023-01-01T00:00:00Z"></time>`,
			want: "2024-01-02T00:00:00Z",
		},
		"time text": {
			page: `<time>12 de maio de 2024 às 10:30</time>`,
			want: "2024-05-12T10:30:00Z",
		},
		"labelled element": {
			page: `<span data-testid="article-date">12/05/2024 10:30</span>`,
			want: "2024-05-12T10:30:00Z",
		},
		"label badge skipped": {
			page: `<span class="update-badge">Atualizado</span><span class="date">Publicado</span><span class="publish-date">12/05/2024 10:30</span>`,
			want: "2024-05-12T10:30:00Z",
		},
		"class containing date ignored": {
			page: `<span class="candidate-list">Top 10 candidatos</span><span class="ArticleHeader_Date__x1">12/05/2024 10:30</span>`,
			want: "2024-05-12T10:30:00Z",
		},
		"unparsable kept raw": {
			page: `<meta property="article:published_time" content="em breve">`,
			want: "em breve",
		},
		"empty meta skipped": {
			page: `<meta property="article:published_time" content=" "><time datetime="2024-05-12T13:00:00Z"></time>`,
			want: "2024-05-12T13:00:00Z",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := DetailExtractor{Dates: n}.Extract([]byte(tc.page))
			require.NoError(t, err)
			require.Equal(t, tc.want, got.PublishedAt)
		})
	}
}

func TestDetailExtractorNeverKeepsDenylistedParagraphs(t *testing.T) {
	for _, phrase := range denylist {
		for _, variant := range []string{phrase, strings.ToUpper(phrase)} {
			page := `<div data-testid="article-body">` +
				`<div class="articleParagraph"><p>Texto legítimo.</p></div>` +
				`<div class="articleParagraph"><p>` + variant + `</p></div>` +
				`<div class="articleParagraph"><p>Mais texto legítimo.</p></div>` +
				`</div>`

			got, err := DetailExtractor{}.Extract([]byte(page))
			require.NoError(t, err)
			require.Equal(t, "Texto legítimo.\nMais texto legítimo.", got.BodyText, "phrase %q", variant)
		}
	}
}

func TestDetailExtractorKeepsParagraphsInClassesEndingInAd(t *testing.T) {
	page := `<div data-testid="article-body">` +
		`<div class="articleParagraph thread-item"><p>Primeiro parágrafo.</p></div>` +
		`<div class="articleParagraph download-link"><p>Segundo parágrafo.</p></div>` +
		`<div class="articleParagraph"><div class="ad-slot"><p>Patrocinado pela marca</p></div></div>` +
		`<div class="articleParagraph"><div class="banner ad-top"><p>Oferta do dia</p></div></div>` +
		`</div>`

	got, err := DetailExtractor{}.Extract([]byte(page))
	require.NoError(t, err)
	require.Equal(t, "Primeiro parágrafo.\nSegundo parágrafo.", got.BodyText)
}

func TestIsBoilerplate(t *testing.T) {
	require.True(t, isBoilerplate("www.onefootball.com"))
	require.True(t, isBoilerplate("https://x.y/z"))
	require.True(t, isBoilerplate("Veja também: tabela"))
	require.False(t, isBoilerplate("Visite https://x.y para mais"))
	require.False(t, isBoilerplate("O jogo terminou empatado."))
}
