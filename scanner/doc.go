// Package scanner locates GRIB2 messages in a byte stream.
//
// A GRIB2 file is a concatenation of independent messages, each opened by a
// 16-byte indicator section ("GRIB" magic, discipline, edition, total
// length), followed by numbered sections 1 through 7 and closed by a "7777"
// trailer. A message may restart its section sequence at section 2, 3 or 4
// without a new indicator: each restart is a submessage sharing the outer
// reference time. The scanner walks this structure strictly sequentially and
// emits one Message per message or submessage, carrying section offsets and
// the decoded metadata sections (1, 3, 4, 5). Data payloads are located but
// never unpacked.
//
// Leading junk before a message is tolerated up to a bounded lookahead
// window, and embedded legacy edition 1 messages are skipped by their
// declared length. Bitmap reuse (section 6 indicator 254) resolves against
// the most recent bitmap seen in the same scan pass.
package scanner
