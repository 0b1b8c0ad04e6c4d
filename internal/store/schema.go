package store

const schema = `
CREATE TABLE IF NOT EXISTS "tbl_admin" (
	"admin_id" TEXT PRIMARY KEY,
	"password" TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS "tbl_group_id" (
	"group_id" TEXT PRIMARY KEY,
	"password" TEXT NOT NULL,
	"last_login" INTEGER NOT NULL DEFAULT 0,
	"group_size" INTEGER NOT NULL DEFAULT 0,
	"allotment_status" TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS "tbl_allotment_status" (
	"process_status" TEXT NOT NULL DEFAULT '',
	"message" TEXT NOT NULL DEFAULT '',
	"show_message" TEXT NOT NULL DEFAULT 'HIDE',
	"login_status" TEXT NOT NULL DEFAULT 'ENABLED',
	"login_message" TEXT NOT NULL DEFAULT '',
	"registrations" TEXT NOT NULL DEFAULT ''
);

INSERT INTO "tbl_allotment_status" ("process_status")
SELECT '' WHERE NOT EXISTS (SELECT 1 FROM "tbl_allotment_status");
`
