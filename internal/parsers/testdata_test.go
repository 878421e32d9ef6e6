package parsers

const procStat25786 = `25786 (com.example.app) S 612 612 0 0 -1 1077952832 183264 0 1210 0 120 30 0 0 10 -10 42 0 884211 15802867712 42312 18446744073709551615 1 1 0 0 0 0 4612 1 1073775864 0 0 0 17 3 0 0 0 0 0 0 0 0 0 0 0 0 0`

const systemStat = `cpu  1000 20 300 5000 100 0 30 0 0 0
cpu0 250 5 75 1250 25 0 8 0 0 0
cpu1 250 5 75 1250 25 0 7 0 0 0
cpu2 250 5 75 1250 25 0 8 0 0 0
cpu3 250 5 75 1250 25 0 7 0 0 0
intr 123456 0 0 0
ctxt 987654
btime 1700000000`

const taskStats = `25786 (com.example.app) S 612 612 0 0 -1 1077952832 0 0 0 0 90 20 0 0 10 -10 42 0 884211 0 0
25790 (RenderThread) S 612 612 0 0 -1 1077952832 0 0 0 0 25 5 0 0 10 -10 42 0 884230 0 0
25801 (Binder:25786_1) S 612 612 0 0 -1 1077952832 0 0 0 0 5 5 0 0 10 -10 42 0 884240 0 0`

const meminfoModern = `Applications Memory Usage (in Kilobytes):
Uptime: 5501840 Realtime: 5501840

** MEMINFO in pid 25786 [com.example.app] **
                   Pss  Private  Private  SwapPss      Rss     Heap     Heap     Heap
                 Total    Dirty    Clean    Dirty    Total     Size    Alloc     Free
                ------   ------   ------   ------   ------   ------   ------   ------
  Native Heap    12345    12300        0       12    13000    20480    15000     5480
  Dalvik Heap     5432     5400        0        0     6000    12000     8000     4000
        Stack      500      500        0        0      510
     .so mmap     4567      200     3000        0    30000
     Graphics     8000     8000        0        0     8000
      Unknown     1234     1234        0        0     1300
        TOTAL    98765    30000    20000       12   150000    32480    23000     9480

 App Summary
                       Pss(KB)                        Rss(KB)
                        ------                         ------
           Java Heap:     5432                          12000
         Native Heap:    12300                          13000
                Code:     4567                          30000
               Stack:      500                            510
            Graphics:     8000                           8000
       Private Other:     1234
              System:     6789

           TOTAL PSS:    98765            TOTAL RSS:   150000       TOTAL SWAP PSS:       12

 Objects
               Views:       10         ViewRootImpl:        1
         AppContexts:        3           Activities:        1
`

const meminfoLegacy = `** MEMINFO in pid 25786 [com.example.app] **
                         Shared  Private     Heap     Heap     Heap
                   Pss    Dirty    Dirty     Size    Alloc     Free
                ------   ------   ------   ------   ------   ------
       Native     2004     1056     1944     5236     3684       31
       Dalvik     6231    12788     5796    15815    15171      644
        TOTAL    45678    16476    22864    21051    18855      675
`

// Android 6-9: the App Summary block ends with "TOTAL:" and is followed by
// object counts that are not sizes.
const meminfoPie = `** MEMINFO in pid 25786 [com.example.app] **
                   Pss  Private  Private  SwapPss     Heap     Heap     Heap
                 Total    Dirty    Clean    Dirty     Size    Alloc     Free
                ------   ------   ------   ------   ------   ------   ------
  Native Heap     3210     3200        0        0    16384     9000     7384
  Dalvik Heap     5432     5400        0        0    12000     8000     4000
        TOTAL    21512    12000     4000      123    28384    17000    11384

 App Summary
                       Pss(KB)
                        ------
           Java Heap:     5432
         Native Heap:     3210
                Code:     6543
               Stack:      123
            Graphics:     2345
       Private Other:     1234
              System:     2625

               TOTAL:    21512       TOTAL SWAP PSS:      123

 Objects
               Views:       10         ViewRootImpl:        1
         AppContexts:        3           Activities:        1
              Assets:        8        AssetManagers:        0
       Local Binders:       15        Proxy Binders:       29

 SQL
         MEMORY_USED:        0
  PAGECACHE_OVERFLOW:        0          MALLOC_SIZE:        0
`
