/*
Package nbt reads and writes Minecraft's Named Binary Tag format and the
region files which store compressed NBT chunks on a 32x32 grid.

Tag trees live in an Arena. A Tag is a small handle into an arena: lookups
return handles which alias the stored nodes, removing a child releases its
subtree and any remaining handles to it fail with ErrReleased.

Data Structure Documentation

NBT stream

A stream holds a single named root tag. All numbers are big-endian, floats
are IEEE-754.

    Named tag:
    +-------------------+---------------------------+--------------+---------+
    | tag type (1 byte) | name length (2 bytes, BE) | name (bytes) | payload |
    +-------------------+---------------------------+--------------+---------+

    List payload:
    +---------------------------+--------------------------+-----------+-------+-----------+
    | element type (1 byte)     | count (4 bytes, BE)      | payload 1 |  ...  | payload n |
    +---------------------------+--------------------------+-----------+-------+-----------+

    Compound payload:
    +-------------+-------+-------------+-------------------+
    | named tag 1 |  ...  | named tag n | TAG_End (1 byte)  |
    +-------------+-------+-------------+-------------------+

    Byte_Array / Int_Array payload:
    +---------------------+-----------------------------------------+
    | count (4 bytes, BE) | count bytes / count 4-byte ints (BE)    |
    +---------------------+-----------------------------------------+

Region

A region file is a sequence of 4096-byte sectors. The first two sectors
hold the location and timestamp tables, each with one 4-byte entry per
chunk at index x + 32*z.

    Region layout:
    +--------------------------+---------------------------+----------+-------+----------+
    | locations (4096 bytes)   | timestamps (4096 bytes)   | sector 2 |  ...  | sector n |
    +--------------------------+---------------------------+----------+-------+----------+

    Location entry:
    +-----------------------------+-----------------------+
    | sector offset (3 bytes, BE) | sector count (1 byte) |
    +-----------------------------+-----------------------+

Chunk

A chunk starts at the first of its sectors and is zero-padded up to the
sector boundary. The length counts the scheme byte and the payload.

    Chunk layout:
    +----------------------+----------------------+--------------------+---------+
    | length (4 bytes, BE) | scheme (1 byte)      | compressed payload | padding |
    +----------------------+----------------------+--------------------+---------+

Scheme codes are 1 for gzip, 2 for zlib and 3 for uncompressed data.
*/
package nbt
