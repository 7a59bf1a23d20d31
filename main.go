package main

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"sitebook/collections"
	"sitebook/config"
	"sitebook/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	imp := cfg.Import

	app := pocketbase.New()

	app.RootCmd.AddCommand(
		newImportBOQCmd(app, imp),
		newImportScheduleCmd(app),
		newBOQTemplateCmd(),
	)

	// Create collections, repair BOQ versions and seed demo data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.MigrateSingleActiveBOQ(app); err != nil {
			log.Printf("Warning: active BOQ migration failed: %v", err)
		}
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// ── BOQ import ──────────────────────────────────────────
		se.Router.GET("/projects/{projectId}/boq/import/template", handlers.HandleBOQTemplateDownload(app))
		se.Router.POST("/projects/{projectId}/boq/import", handlers.HandleBOQImportUpload(app, imp))
		se.Router.POST("/projects/{projectId}/boq/import/{sessionId}/commit", handlers.HandleBOQImportCommit(app, imp))

		// ── Schedule import ─────────────────────────────────────
		se.Router.POST("/projects/{projectId}/schedule/import", handlers.HandleScheduleImportUpload(app, imp))
		se.Router.POST("/projects/{projectId}/schedule/import/{sessionId}/commit", handlers.HandleScheduleImportCommit(app))

		// ── BOQ editor ──────────────────────────────────────────
		se.Router.GET("/projects/{projectId}/boq/active", handlers.HandleActiveBOQ(app))
		se.Router.POST("/projects/{projectId}/boq/{id}/items", handlers.HandleAddBOQItem(app))
		se.Router.PATCH("/projects/{projectId}/boq/{id}/items/{itemId}", handlers.HandlePatchBOQItem(app))
		se.Router.DELETE("/projects/{projectId}/boq/{id}/items/{itemId}", handlers.HandleDeleteBOQItem(app))
		se.Router.POST("/projects/{projectId}/boq/{id}/status", handlers.HandleBOQStatus(app))

		// ── BOQ export ──────────────────────────────────────────
		se.Router.GET("/projects/{projectId}/boq/{id}/export/excel", handlers.HandleBOQExportExcel(app))
		se.Router.GET("/projects/{projectId}/boq/{id}/export/pdf", handlers.HandleBOQExportPDF(app))

		// BOQ view (must be after specific /boq/{id}/* routes)
		se.Router.GET("/projects/{projectId}/boq/{id}", handlers.HandleBOQView(app))

		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/_/")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
