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
					"id": "text3208210264",
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
					"id": "text2363381556",
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
					"id": "number1321154070",
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
					"id": "number1321154071",
					"max": null,
					"min": null,
					"name": "player",
					"onlyInt": true,
					"presentable": false,
					"required": true,
					"system": false,
					"type": "number"
				},
				{
					"autogeneratePattern": "",
					"hidden": false,
					"id": "text2363381557",
					"max": 0,
					"min": 0,
					"name": "message",
					"pattern": "",
					"presentable": false,
					"primaryKey": false,
					"required": false,
					"system": false,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "bool1679243010",
					"name": "dead",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "bool"
				},
				{
					"hidden": false,
					"id": "number1321154072",
					"max": null,
					"min": null,
					"name": "message_mode",
					"onlyInt": true,
					"presentable": false,
					"required": false,
					"system": false,
					"type": "number"
				},
				{
					"hidden": false,
					"id": "date1420164923",
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
					"id": "text3959870513",
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
					"id": "autodate2990389184",
					"name": "created",
					"onCreate": true,
					"onUpdate": false,
					"presentable": false,
					"system": false,
					"type": "autodate"
				}
			],
			"id": "pbc_1516038903",
			"indexes": [
				"CREATE UNIQUE INDEX ` + "`" + `idx_events_chat_event_id` + "`" + ` ON ` + "`" + `events_chat` + "`" + ` (` + "`" + `event_id` + "`" + `)",
				"CREATE INDEX ` + "`" + `idx_events_chat_server` + "`" + ` ON ` + "`" + `events_chat` + "`" + ` (` + "`" + `server` + "`" + `)",
				"CREATE INDEX ` + "`" + `idx_events_chat_player` + "`" + ` ON ` + "`" + `events_chat` + "`" + ` (` + "`" + `player` + "`" + `)"
			],
			"listRule": "",
			"name": "events_chat",
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
		collection, err := app.FindCollectionByNameOrId("pbc_1516038903")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
