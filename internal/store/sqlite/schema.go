package sqlite

// schema creates the ledger tables. Money columns hold integer minor units
// next to a currency code; exchange rates hold the integer scaled-by-10000
// representation; enums are stored by name.
const schema = `
CREATE TABLE IF NOT EXISTS transactions (
    id              TEXT PRIMARY KEY,
    tx_date         TEXT NOT NULL,              -- YYYY-MM-DD
    created_at      TEXT NOT NULL,              -- RFC 3339, audit only
    payer           TEXT NOT NULL,
    account         TEXT NOT NULL,
    amount_minor    INTEGER NOT NULL,
    currency        TEXT NOT NULL,
    direction       TEXT NOT NULL,
    rate_scaled     INTEGER NOT NULL,
    commission_minor INTEGER NOT NULL DEFAULT 0,
    category        TEXT NOT NULL,
    payee           TEXT NOT NULL DEFAULT '',
    reference       TEXT NOT NULL DEFAULT '',
    split_minor     INTEGER NOT NULL DEFAULT 0,
    split_category  TEXT NOT NULL DEFAULT 'unknown',
    closed          INTEGER NOT NULL DEFAULT 0,
    pair_id         TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_transactions_account_date
    ON transactions(account, tx_date);

CREATE INDEX IF NOT EXISTS idx_transactions_pair
    ON transactions(pair_id);

CREATE TABLE IF NOT EXISTS category_mappings (
    key       TEXT PRIMARY KEY,
    category  TEXT NOT NULL,
    use_count INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS reconciliations (
    id              TEXT PRIMARY KEY,
    account         TEXT NOT NULL,
    year            INTEGER NOT NULL,
    month           INTEGER NOT NULL,
    statement_date  TEXT NOT NULL,              -- YYYY-MM-DD
    balance_minor   INTEGER NOT NULL,
    currency        TEXT NOT NULL,
    closed          INTEGER NOT NULL DEFAULT 0,
    UNIQUE(account, year, month)
);

CREATE INDEX IF NOT EXISTS idx_reconciliations_account_date
    ON reconciliations(account, statement_date);
`
