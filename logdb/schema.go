// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// seq packs the block number and the event index, see sequence.
const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY NOT NULL,
	blockNumber INTEGER NOT NULL,
	eventIndex INTEGER NOT NULL,
	module TEXT NOT NULL,
	name TEXT NOT NULL,
	account BLOB(20),
	data BLOB
);

CREATE INDEX IF NOT EXISTS event_i_module ON event(module, name, seq);
CREATE INDEX IF NOT EXISTS event_i_account ON event(account, seq);
`
