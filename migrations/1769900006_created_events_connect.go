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
					"id": "text3208210261",
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
					"id": "text2363381550",
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
					"id": "number1321154040",
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
					"id": "number1321154041",
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
					"id": "text2363381551",
					"max": 0,
					"min": 0,
					"name": "ip",
					"pattern": "",
					"presentable": false,
					"primaryKey": false,
					"required": false,
					"system": false,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "date1420164920",
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
					"id": "text3959870510",
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
					"id": "autodate2990389181",
					"name": "created",
					"onCreate": true,
					"onUpdate": false,
					"presentable": false,
					"system": false,
					"type": "autodate"
				}
			],
			"id": "pbc_1516038900",
			"indexes": [
				"CREATE UNIQUE INDEX ` + "`" + `idx_events_connect_event_id` + "`" + ` ON ` + "`" + `events_connect` + "`" + ` (` + "`" + `event_id` + "`" + `)",
				"CREATE INDEX ` + "`" + `idx_events_connect_server` + "`" + ` ON ` + "`" + `events_connect` + "`" + ` (` + "`" + `server` + "`" + `)",
				"CREATE INDEX ` + "`" + `idx_events_connect_player` + "`" + ` ON ` + "`" + `events_connect` + "`" + ` (` + "`" + `player` + "`" + `)"
			],
			"listRule": "",
			"name": "events_connect",
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
		collection, err := app.FindCollectionByNameOrId("pbc_1516038900")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
