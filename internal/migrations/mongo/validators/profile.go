package validators

import "go.mongodb.org/mongo-driver/bson"

// ProfileValidator keeps sealed secrets and branding fields as strings.
// Profiles are keyed by the tenant id, so _id is a string too.
var ProfileValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "updated_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"company_name": bson.M{
				"bsonType":  "string",
				"maxLength": 120,
			},
			"logo_url": bson.M{
				"bsonType":  "string",
				"maxLength": 2048,
			},
			"cal_api_key": bson.M{
				"bsonType": "string",
			},
			"custom_store_url": bson.M{
				"bsonType":  "string",
				"maxLength": 2048,
			},
			"custom_store_key": bson.M{
				"bsonType": "string",
			},
			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
