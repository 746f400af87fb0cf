package server_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mcp-x-studio/canvas/citest/testutil"
	"github.com/mcp-x-studio/canvas/pkg/types"
)

const seedYAML = `
css: ".card:hover { opacity: 0.5 }"
javascript: ""
artboard:
  id: artboard
  style:
    width: 800px
    height: 600px
  children:
    - id: card_1
      type: div
      style:
        width: 100px
        height: 50px
        left: 10px
        top: 20px
`

var _ = Describe("Seed documents", func() {
	It("should start the server from a YAML seed", func() {
		dir, err := testutil.NewTempDir()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(dir.Cleanup)

		path, err := dir.CreateFile("seed.yaml", seedYAML)
		Expect(err).NotTo(HaveOccurred())

		server, err := testutil.StartTestServer(testutil.WithSeedFile(path))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(server.Stop)

		doc, err := server.Client().GetCanvas(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.CSS).To(Equal(".card:hover { opacity: 0.5 }"))
		Expect(doc.Artboard.Position).To(Equal(types.PositionRelative))
		Expect(doc.Artboard.Style).To(HaveKeyWithValue("width", "800px"))

		card := testutil.FindChild(doc, "card_1")
		Expect(card).NotTo(BeNil())
		Expect(card.Position).To(Equal(types.PositionAbsolute))
	})

	It("should refuse a seed with duplicate ids", func() {
		dir, err := testutil.NewTempDir()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(dir.Cleanup)

		path, err := dir.CreateFile("seed.json", `{"artboard":{"id":"artboard","children":[
			{"id":"same","style":{"width":"1px","height":"1px","left":"0","top":"0"}},
			{"id":"same","style":{"width":"1px","height":"1px","left":"0","top":"0"}}]}}`)
		Expect(err).NotTo(HaveOccurred())

		_, err = testutil.StartTestServer(testutil.WithSeedFile(path))
		Expect(err).To(HaveOccurred())
	})
})
