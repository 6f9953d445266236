package card

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("ScryfallClient", func() {
	var (
		apiServer *ghttp.Server
		client    *ScryfallClient
		result    *LookupResult
		err       error
		name      string
	)

	BeforeEach(func() {
		apiServer = ghttp.NewServer()
		client = NewScryfallClient(apiServer.URL(), "test")
		name = "Lightning Bolt"
	})

	AfterEach(func() {
		apiServer.Close()
	})

	JustBeforeEach(func() {
		result, err = client.Lookup(context.Background(), name)
	})

	When("the fuzzy match resolves and rulings exist", func() {
		BeforeEach(func() {
			apiServer.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/cards/named", "fuzzy=Lightning+Bolt"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{
						"name":        "Lightning Bolt",
						"rulings_uri": apiServer.URL() + "/cards/abc123/rulings",
					}),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/cards/abc123/rulings"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
						"data": []map[string]string{
							{"published_at": "2004-10-04", "comment": "First ruling."},
							{"published_at": "2009-10-01", "comment": "Second ruling."},
						},
					}),
				),
			)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the provider's canonical card name", func() {
			Expect(result.CardName).To(Equal("Lightning Bolt"))
		})

		It("should return the rulings in provider order", func() {
			Expect(result.Rulings).To(Equal([]Ruling{
				{PublishedAt: "2004-10-04", Comment: "First ruling."},
				{PublishedAt: "2009-10-01", Comment: "Second ruling."},
			}))
		})

		It("should leave the suggestions empty", func() {
			Expect(result.Suggestions).To(BeEmpty())
		})
	})

	When("the fuzzy match finds no card", func() {
		BeforeEach(func() {
			name = "Lihgtning Blot"
			apiServer.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/cards/named", "fuzzy=Lihgtning+Blot"),
					ghttp.RespondWithJSONEncoded(http.StatusNotFound, map[string]string{
						"object": "error", "code": "not_found",
					}),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/cards/autocomplete", "q=Lihgtning+Blot"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
						"data": []string{
							"Lightning Bolt",
							"Lightning Blast",
							"Lightning Helix",
							"Lightning Strike",
							"Lightning Axe",
						},
					}),
				),
			)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should leave the rulings empty", func() {
			Expect(result.Rulings).To(BeEmpty())
		})

		It("should return at most three suggestions, in provider order", func() {
			Expect(result.Suggestions).To(Equal([]string{
				"Lightning Bolt",
				"Lightning Blast",
				"Lightning Helix",
			}))
		})
	})

	When("the fuzzy response is malformed", func() {
		BeforeEach(func() {
			apiServer.AppendHandlers(
				ghttp.RespondWith(http.StatusOK, "not json at all"),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/cards/autocomplete", "q=Lightning+Bolt"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
						"data": []string{"Lightning Bolt"},
					}),
				),
			)
		})

		It("should fall back to suggestions", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Rulings).To(BeEmpty())
			Expect(result.Suggestions).To(Equal([]string{"Lightning Bolt"}))
		})
	})

	When("the card resolves but has no rulings link", func() {
		BeforeEach(func() {
			apiServer.AppendHandlers(
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{
					"name": "Lightning Bolt",
				}),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/cards/autocomplete", "q=Lightning+Bolt"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
						"data": []string{"Lightning Bolt"},
					}),
				),
			)
		})

		It("should fall back to suggestions", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Suggestions).To(HaveLen(1))
			Expect(result.Rulings).To(BeEmpty())
		})
	})

	When("neither endpoint has anything", func() {
		BeforeEach(func() {
			name = "Zzyzzogeton"
			apiServer.AppendHandlers(
				ghttp.RespondWithJSONEncoded(http.StatusNotFound, map[string]string{"object": "error"}),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{"data": []string{}}),
			)
		})

		It("should return an empty result on both sides", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Rulings).To(BeEmpty())
			Expect(result.Suggestions).To(BeEmpty())
			Expect(result.Found()).To(BeFalse())
		})
	})

	When("the fallback itself fails", func() {
		BeforeEach(func() {
			apiServer.AppendHandlers(
				ghttp.RespondWithJSONEncoded(http.StatusNotFound, map[string]string{"object": "error"}),
				ghttp.RespondWith(http.StatusInternalServerError, "boom"),
			)
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("autocomplete fallback"))
		})
	})

	When("the name needs URL encoding", func() {
		BeforeEach(func() {
			name = "Jace, the Mind Sculptor"
			apiServer.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/cards/named", "fuzzy=Jace%2C+the+Mind+Sculptor"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{
						"name":        "Jace, the Mind Sculptor",
						"rulings_uri": apiServer.URL() + "/cards/jtms/rulings",
					}),
				),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"data": []map[string]string{{"published_at": "2010-03-01", "comment": "A ruling."}},
				}),
			)
		})

		It("should escape the query and resolve rulings", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Rulings).To(HaveLen(1))
		})
	})
})
