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
					"id": "text3208210260",
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
					"id": "text2477632190",
					"max": 0,
					"min": 0,
					"name": "unique_id",
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
					"id": "text1727723060",
					"max": 0,
					"min": 0,
					"name": "game",
					"pattern": "",
					"presentable": false,
					"primaryKey": false,
					"required": true,
					"system": false,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "number1992828920",
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
					"hidden": false,
					"id": "autodate2990389180",
					"name": "created",
					"onCreate": true,
					"onUpdate": false,
					"presentable": false,
					"system": false,
					"type": "autodate"
				}
			],
			"id": "pbc_2936669996",
			"indexes": [
				"CREATE UNIQUE INDEX ` + "`" + `idx_player_unique_ids_unique_id_game` + "`" + ` ON ` + "`" + `player_unique_ids` + "`" + ` (\n  ` + "`" + `unique_id` + "`" + `,\n  ` + "`" + `game` + "`" + `\n)",
				"CREATE INDEX ` + "`" + `idx_player_unique_ids_player` + "`" + ` ON ` + "`" + `player_unique_ids` + "`" + ` (` + "`" + `player` + "`" + `)"
			],
			"listRule": "",
			"name": "player_unique_ids",
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
		collection, err := app.FindCollectionByNameOrId("pbc_2936669996")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
