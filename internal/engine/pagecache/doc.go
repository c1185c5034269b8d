// Package pagecache stores cold line metadata outside of memory.
//
// A Block holds the metadata of a run of line records: positions, the
// dirty flag, fold state and syntax tokens. Line text is never part of a
// block. Blocks are serialized little endian as
//
//	[count:int32][maxCapacity:int32]
//	count × [start:int64][length:int64][dirty:bool][foldState:int64][syntaxCount:int64]
//	        syntaxCount × [tokenType:int64][start:int64][length:int64]
//
// Stores are keyed by document id and block index. MemoryStore keeps the
// encoded bytes in a map and DiskStore writes one file per key, so the two
// are interchangeable behind the Store interface.
package pagecache
