package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"createRule": null,
			"deleteRule": null,
			"fields": [
				{
					"autogeneratePattern": "[a-z0-9]{15}",
					"hidden": false,
					"id": "text3208210263",
					"max": 15,
					"min": 15,
					"name": "id",
					"pattern": "^[a-z0-9]+$",
					"presentable": false,
					"primaryKey": true,
					"required": true,
					"system": true,
					"type": "text"
				},
				{
					"autogeneratePattern": "",
					"hidden": false,
					"id": "text2363381554",
					"max": 0,
					"min": 0,
					"name": "event_id",
					"pattern": "",
					"presentable": false,
					"primaryKey": false,
					"required": true,
					"system": false,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "number1321154060",
					"max": null,
					"min": null,
					"name": "server",
					"onlyInt": true,
					"presentable": false,
					"required": true,
					"system": false,
					"type": "number"
				},
				{
					"hidden": false,
					"id": "number1321154061",
					"max": null,
					"min": null,
					"name": "killer",
					"onlyInt": true,
					"presentable": false,
					"required": true,
					"system": false,
					"type": "number"
				},
				{
					"hidden": false,
					"id": "number1321154062",
					"max": null,
					"min": null,
					"name": "victim",
					"onlyInt": true,
					"presentable": false,
					"required": true,
					"system": false,
					"type": "number"
				},
				{
					"autogeneratePattern": "",
					"hidden": false,
					"id": "text2363381555",
					"max": 0,
					"min": 0,
					"name": "weapon",
					"pattern": "",
					"presentable": false,
					"primaryKey": false,
					"required": false,
					"system": false,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "bool1679243001",
					"name": "headshot",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "bool"
				},
				{
					"hidden": false,
					"id": "bool1679243002",
					"name": "teamkill",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "bool"
				},
				{
					"hidden": false,
					"id": "bool1679243003",
					"name": "suicide",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "bool"
				},
				{
					"hidden": false,
					"id": "date1420164922",
					"max": "",
					"min": "",
					"name": "timestamp",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "date"
				},
				{
					"autogeneratePattern": "",
					"hidden": false,
					"id": "text3959870512",
					"max": 0,
					"min": 0,
					"name": "raw",
					"pattern": "",
					"presentable": false,
					"primaryKey": false,
					"required": false,
					"system": false,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "autodate2990389183",
					"name": "created",
					"onCreate": true,
					"onUpdate": false,
					"presentable": false,
					"system": false,
					"type": "autodate"
				}
			],
			"id": "pbc_1516038902",
			"indexes": [
				"CREATE UNIQUE INDEX ` + "`" + `idx_events_frag_event_id` + "`" + ` ON ` + "`" + `events_frag` + "`" + ` (` + "`" + `event_id` + "`" + `)",
				"CREATE INDEX ` + "`" + `idx_events_frag_server` + "`" + ` ON ` + "`" + `events_frag` + "`" + ` (` + "`" + `server` + "`" + `)",
				"CREATE INDEX ` + "`" + `idx_events_frag_killer` + "`" + ` ON ` + "`" + `events_frag` + "`" + ` (` + "`" + `killer` + "`" + `)",
				"CREATE INDEX ` + "`" + `idx_events_frag_victim` + "`" + ` ON ` + "`" + `events_frag` + "`" + ` (` + "`" + `victim` + "`" + `)"
			],
			"listRule": "",
			"name": "events_frag",
			"system": false,
			"type": "base",
			"updateRule": null,
			"viewRule": ""
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), &collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_1516038902")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
