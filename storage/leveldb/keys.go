package leveldb

// encodeKey builds the full goleveldb key for a logical (tag, prefix, key)
// triple: tag byte, then the context's path prefix, then the local key.
func encodeKey(tag cfTag, prefix, key []byte) []byte {
	out := make([]byte, 0, 1+len(prefix)+len(key))
	out = append(out, byte(tag))
	out = append(out, prefix...)
	out = append(out, key...)
	return out
}
