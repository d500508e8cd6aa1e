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
					"id": "text3208210256",
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
					"id": "text2363381545",
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
					"autogeneratePattern": "",
					"hidden": false,
					"id": "text1812504113",
					"max": 0,
					"min": 0,
					"name": "type",
					"pattern": "",
					"presentable": false,
					"primaryKey": false,
					"required": true,
					"system": false,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "number1321154031",
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
					"id": "date1420164917",
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
					"id": "text3959870502",
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
					"id": "json1582905952",
					"maxSize": 0,
					"name": "data",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "json"
				},
				{
					"hidden": false,
					"id": "autodate2990389176",
					"name": "created",
					"onCreate": true,
					"onUpdate": false,
					"presentable": false,
					"system": false,
					"type": "autodate"
				}
			],
			"id": "pbc_1516038891",
			"indexes": [
				"CREATE UNIQUE INDEX ` + "`" + `idx_game_events_event_id` + "`" + ` ON ` + "`" + `game_events` + "`" + ` (` + "`" + `event_id` + "`" + `)",
				"CREATE INDEX ` + "`" + `idx_game_events_server` + "`" + ` ON ` + "`" + `game_events` + "`" + ` (` + "`" + `server` + "`" + `)",
				"CREATE INDEX ` + "`" + `idx_game_events_type` + "`" + ` ON ` + "`" + `game_events` + "`" + ` (` + "`" + `type` + "`" + `)"
			],
			"listRule": "",
			"name": "game_events",
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
		collection, err := app.FindCollectionByNameOrId("pbc_1516038891")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
