// Package sink reloads the run's CSV outputs into the durable table store.
//
// Tables are loaded in a fixed order. Each table is replaced atomically on its
// own; a failure stops the pass without rolling back tables already reloaded.
// Compaction runs only after every table loaded.
package sink
